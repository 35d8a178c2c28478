package models

import (
	"time"
)

// Discipline codes follow the FIS convention.
const (
	DisciplineSlalom      = "SL"
	DisciplineGiantSlalom = "GS"
	DisciplineSuperG      = "SG"
	DisciplineDownhill    = "DH"
)

// RaceResult is one athlete's result in one race. Rows are immutable facts
// owned by the result store; the analytics layer never writes them.
// Rank, FISPoints and Bib are nullable: a nil rank or nil points means the
// athlete did not produce a scored run (DNF, DSQ, DNS).
type RaceResult struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	AthleteID   string     `gorm:"not null;index:idx_athlete_date,priority:1" json:"athlete_id"`
	AthleteName string     `json:"athlete_name"`
	Country     string     `json:"country,omitempty"`
	RaceID      string     `gorm:"not null;index" json:"race_id"`
	Discipline  string     `gorm:"type:varchar(8);not null;index" json:"discipline"`
	Date        time.Time  `gorm:"not null;index:idx_athlete_date,priority:2" json:"date"`
	Rank        *int       `json:"rank"`
	FISPoints   *float64   `json:"fis_points"`
	Bib         *int       `json:"bib"`
	Location    string     `gorm:"index" json:"location"`
}

func (RaceResult) TableName() string {
	return "race_results"
}

// Scored reports whether the result carries a usable performance measure.
func (r *RaceResult) Scored() bool {
	return r.FISPoints != nil
}

// Race is a single competition instance. One race has many RaceResults
// (the field).
type Race struct {
	RaceID     string    `gorm:"primaryKey" json:"race_id"`
	Date       time.Time `gorm:"not null;index" json:"date"`
	Discipline string    `gorm:"type:varchar(8);not null;index" json:"discipline"`
	Location   string    `json:"location"`
	Country    string    `json:"country,omitempty"`
	CourseID   string    `gorm:"index" json:"course_id"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Race) TableName() string {
	return "races"
}

// Course holds the physical characteristics the regression and quintile
// analytics key on. Characteristics are nullable because homologation data
// is incomplete for older races.
type Course struct {
	CourseID      string   `gorm:"primaryKey" json:"course_id"`
	Name          string   `json:"name"`
	VerticalDrop  *float64 `json:"vertical_drop"`
	GateCount     *float64 `json:"gate_count"`
	StartAltitude *float64 `json:"start_altitude"`
	Homologation  string   `json:"homologation,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}
