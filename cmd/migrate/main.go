package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skistats/fis-analytics/internal/models"
	"github.com/skistats/fis-analytics/pkg/config"
	"github.com/skistats/fis-analytics/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Course{},
		&models.Race{},
		&models.RaceResult{},
		&models.RefreshRun{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_results_race_points ON race_results(race_id) WHERE fis_points IS NOT NULL",
		"CREATE INDEX IF NOT EXISTS idx_results_athlete_discipline ON race_results(athlete_id, discipline)",
		"CREATE INDEX IF NOT EXISTS idx_races_discipline_date ON races(discipline, date)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Reverse dependency order.
	tables := []string{
		"aggregate_refresh_runs",
		"race_results",
		"races",
		"courses",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func ptr[T any](v T) *T { return &v }

func seedData(db *database.DB) error {
	courses := []models.Course{
		{CourseID: "LEV-SL", Name: "Levi Black", VerticalDrop: ptr(180.0), GateCount: ptr(64.0), StartAltitude: ptr(460.0), Homologation: "13642/11/21"},
		{CourseID: "WEN-DH", Name: "Lauberhorn", VerticalDrop: ptr(1028.0), GateCount: ptr(40.0), StartAltitude: ptr(2315.0), Homologation: "14025/01/22"},
		{CourseID: "ADB-GS", Name: "Chuenisbaergli", VerticalDrop: ptr(420.0), GateCount: ptr(52.0), StartAltitude: ptr(1730.0), Homologation: "13891/12/21"},
		{CourseID: "KIT-SG", Name: "Streif", VerticalDrop: ptr(730.0), GateCount: ptr(38.0), StartAltitude: ptr(1665.0), Homologation: "14011/01/22"},
	}
	if err := db.Create(&courses).Error; err != nil {
		return fmt.Errorf("failed to create courses: %w", err)
	}

	races := []models.Race{
		{RaceID: "FIS-2024-0101", Date: day(2023, 11, 12), Discipline: models.DisciplineSlalom, Location: "Levi", Country: "FIN", CourseID: "LEV-SL"},
		{RaceID: "FIS-2024-0214", Date: day(2024, 1, 6), Discipline: models.DisciplineGiantSlalom, Location: "Adelboden", Country: "SUI", CourseID: "ADB-GS"},
		{RaceID: "FIS-2024-0228", Date: day(2024, 1, 19), Discipline: models.DisciplineSuperG, Location: "Kitzbuehel", Country: "AUT", CourseID: "KIT-SG"},
		{RaceID: "FIS-2024-0233", Date: day(2024, 1, 13), Discipline: models.DisciplineDownhill, Location: "Wengen", Country: "SUI", CourseID: "WEN-DH"},
	}
	if err := db.Create(&races).Error; err != nil {
		return fmt.Errorf("failed to create races: %w", err)
	}

	type entry struct {
		athleteID string
		name      string
		country   string
		rank      *int
		points    *float64
		bib       int
	}
	fields := map[string][]entry{
		"FIS-2024-0101": {
			{"AUT512001", "L. Feller", "AUT", ptr(1), ptr(2.15), 4},
			{"NOR421034", "H. Kristoffersen", "NOR", ptr(2), ptr(4.80), 2},
			{"GER302018", "L. Strasser", "GER", ptr(3), ptr(7.92), 9},
			{"SUI511909", "D. Yule", "SUI", ptr(4), ptr(9.41), 6},
			{"FRA194364", "C. Noel", "FRA", nil, nil, 1}, // DNF run 2
		},
		"FIS-2024-0214": {
			{"SUI512182", "M. Odermatt", "SUI", ptr(1), ptr(0.00), 3},
			{"NOR421034", "H. Kristoffersen", "NOR", ptr(2), ptr(5.33), 5},
			{"AUT512001", "L. Feller", "AUT", ptr(3), ptr(8.10), 11},
			{"SLO561244", "Z. Kranjec", "SLO", ptr(4), ptr(10.66), 7},
		},
		"FIS-2024-0228": {
			{"SUI512182", "M. Odermatt", "SUI", ptr(1), ptr(0.50), 8},
			{"ITA293006", "D. Paris", "ITA", ptr(2), ptr(6.24), 13},
			{"AUT512042", "V. Kriechmayr", "AUT", ptr(3), ptr(7.18), 10},
		},
		"FIS-2024-0233": {
			{"SUI512182", "M. Odermatt", "SUI", ptr(2), ptr(3.90), 9},
			{"ITA293006", "D. Paris", "ITA", ptr(1), ptr(1.12), 15},
			{"AUT512042", "V. Kriechmayr", "AUT", ptr(3), ptr(5.77), 7},
		},
	}

	byRace := make(map[string]models.Race, len(races))
	for _, race := range races {
		byRace[race.RaceID] = race
	}

	var results []models.RaceResult
	for raceID, field := range fields {
		race := byRace[raceID]
		for _, e := range field {
			bib := e.bib
			results = append(results, models.RaceResult{
				AthleteID:   e.athleteID,
				AthleteName: e.name,
				Country:     e.country,
				RaceID:      raceID,
				Discipline:  race.Discipline,
				Date:        race.Date,
				Rank:        e.rank,
				FISPoints:   e.points,
				Bib:         &bib,
				Location:    race.Location,
			})
		}
	}
	if err := db.Create(&results).Error; err != nil {
		return fmt.Errorf("failed to create results: %w", err)
	}

	logrus.Infof("Seeded %d courses, %d races, %d results", len(courses), len(races), len(results))
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
