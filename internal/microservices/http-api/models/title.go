package models

type Title struct {
	ID          int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"size:256;uniqueIndex;not null"`
	Year        *int   `json:"year,omitempty"`
	Description string `json:"description" gorm:"type:text"`
	CategoryID  *int64 `json:"category_id,omitempty" gorm:"index"`

	// Rating is filled by an AVG over reviews at query time, never persisted.
	Rating *float64 `json:"rating" gorm:"->;-:migration"`

	// associations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL;"`
	Genres   []Genre   `json:"genre,omitempty" gorm:"many2many:title_genres;constraint:OnDelete:CASCADE;"`
}

func (Title) TableName() string {
	return "titles"
}
