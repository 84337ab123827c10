package models

// DocumentSequence backs the human-facing quote numbering. One row per
// quote kind and period, incremented with an upsert inside the creating
// transaction.
type DocumentSequence struct {
	Kind   string `gorm:"column:kind;primaryKey"`
	Period string `gorm:"column:period;primaryKey"`
	Seq    int64  `gorm:"column:seq;not null"`
}
