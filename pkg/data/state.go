package data

import (
	"database/sql"

	"github.com/pkg/errors"
)

var (
	stateQueries = map[string]string{
		"calculations": "SELECT COUNT(*) FROM calculation",
		"runs":         "SELECT COUNT(DISTINCT run_id) FROM calculation",
		"calibrated":   "SELECT COUNT(*) FROM calculation WHERE calibrated = 1",
		"cube":         "SELECT COUNT(*) FROM calculation WHERE shape = 'cube'",
		"cylinder":     "SELECT COUNT(*) FROM calculation WHERE shape = 'cylinder'",
	}
)

// GetDataState returns the current state of the database.
func GetDataState(db *sql.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	state := make(map[string]int64)
	for k, v := range stateQueries {
		count, err := getCount(db, v)
		if err != nil {
			return nil, errors.Wrapf(err, "error getting %s count", k)
		}
		state[k] = count
	}

	return state, nil
}

func getCount(db *sql.DB, query string) (int64, error) {
	row := db.QueryRow(query)

	var count int64
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to scan row")
	}

	return count, nil
}
