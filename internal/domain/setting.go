package domain

// Setting is a free-form key/value pair (e.g. display currency).
type Setting struct {
	Key   string `gorm:"column:key;primaryKey" json:"key"`
	Value string `gorm:"column:value;not null" json:"value"`
}

func (Setting) TableName() string {
	return "settings"
}
