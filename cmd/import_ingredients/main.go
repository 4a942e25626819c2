package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/gorm"

	"fermentum/internal/config"
	"fermentum/internal/db"
	"fermentum/models"
)

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(csvPath); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	imported, err := importRecords(database, records)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d ingredients from %s\n", imported, csvPath)
	return nil
}

// importRecords upserts catalog rows one transaction per record so a bad row
// aborts only itself.
func importRecords(database *gorm.DB, records []map[string]string) (int, error) {
	imported := 0
	for idx, record := range records {
		name := strings.TrimSpace(record["name"])
		if name == "" {
			name = strings.TrimSpace(record["Name"])
		}
		description := strings.TrimSpace(record["description"])
		if description == "" {
			description = strings.TrimSpace(record["Description"])
		}

		if name == "" {
			continue
		}

		if err := database.Transaction(func(tx *gorm.DB) error {
			var existing models.Ingredient
			err := tx.Where("lower(name) = ?", strings.ToLower(name)).First(&existing).Error
			if err == nil {
				if description != "" && description != existing.Description {
					return tx.Model(&existing).Update("description", description).Error
				}
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			return tx.Create(&models.Ingredient{Name: name, Description: description}).Error
		}); err != nil {
			return imported, fmt.Errorf("import row %d (%q): %w", idx+1, name, err)
		}
		imported++
	}
	return imported, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[strings.TrimSpace(key)] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}
