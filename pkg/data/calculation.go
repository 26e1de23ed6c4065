package data

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const (
	listLimitDefault = 100

	insertCalculationSQL = `INSERT INTO calculation (
			run_id, name, shape, contact, self_distance, exponent,
			calibrated, x30, buildup, points, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	selectCalculationColumns = `SELECT
			id, run_id, name, shape, contact, self_distance, exponent,
			calibrated, x30, buildup, points, created_at
		FROM calculation
	`

	selectCalculationsSQL = selectCalculationColumns + `ORDER BY id DESC LIMIT ?`
	selectCalculationSQL  = selectCalculationColumns + `WHERE id = ?`
	selectRunSQL          = selectCalculationColumns + `WHERE run_id = ? ORDER BY id`
	deleteCalculationsSQL = `DELETE FROM calculation`
)

// Point is one distance/exposure pair of a saved profile.
type Point struct {
	Distance float64 `json:"distance" yaml:"distance"`
	Exposure float64 `json:"exposure" yaml:"exposure"`
}

// Calculation is a saved source evaluation.
type Calculation struct {
	ID           int64     `json:"id" yaml:"id"`
	RunID        string    `json:"run_id" yaml:"runID"`
	Name         string    `json:"name" yaml:"name"`
	Shape        string    `json:"shape" yaml:"shape"`
	Contact      float64   `json:"contact" yaml:"contact"`
	SelfDistance float64   `json:"self_distance" yaml:"selfDistance"`
	Exponent     float64   `json:"n" yaml:"n"`
	Calibrated   bool      `json:"calibrated" yaml:"calibrated"`
	X30          *float64  `json:"x30,omitempty" yaml:"x30,omitempty"`
	Buildup      *float64  `json:"buildup,omitempty" yaml:"buildup,omitempty"`
	Points       []*Point  `json:"points" yaml:"points"`
	CreatedAt    time.Time `json:"created_at" yaml:"createdAt"`
}

// SaveCalculation inserts c and returns its new ID.
func SaveCalculation(db *sql.DB, c *Calculation) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if c == nil {
		return 0, errors.New("calculation required")
	}
	if c.RunID == "" || c.Shape == "" {
		return 0, errors.Errorf("run_id: %q and shape: %q are required", c.RunID, c.Shape)
	}

	points, err := json.Marshal(c.Points)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal points")
	}

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	calibrated := 0
	if c.Calibrated {
		calibrated = 1
	}

	var id int64
	err = db.QueryRow(rebind(db, insertCalculationSQL),
		c.RunID, c.Name, c.Shape, c.Contact, c.SelfDistance, c.Exponent,
		calibrated, nullFloat(c.X30), nullFloat(c.Buildup), string(points),
		c.CreatedAt.Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to insert calculation")
	}

	c.ID = id
	return id, nil
}

// ListCalculations returns the most recent calculations first.
func ListCalculations(db *sql.DB, limit int) ([]*Calculation, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = listLimitDefault
	}
	return queryCalculations(db, selectCalculationsSQL, limit)
}

// GetRun returns the calculations saved under runID in insertion order.
func GetRun(db *sql.DB, runID string) ([]*Calculation, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	return queryCalculations(db, selectRunSQL, runID)
}

// GetCalculation returns nil when no calculation with id exists.
func GetCalculation(db *sql.DB, id int64) (*Calculation, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	list, err := queryCalculations(db, selectCalculationSQL, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeleteCalculations removes all saved calculations and returns the count.
func DeleteCalculations(db *sql.DB) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	res, err := db.Exec(deleteCalculationsSQL)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete calculations")
	}

	affect, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get affected rows")
	}
	return affect, nil
}

func queryCalculations(db *sql.DB, query string, args ...any) ([]*Calculation, error) {
	rows, err := db.Query(rebind(db, query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute calculation select statement")
	}
	defer rows.Close()

	list := make([]*Calculation, 0)
	for rows.Next() {
		c := &Calculation{}
		var (
			calibrated   int
			x30, buildup sql.NullFloat64
			points       string
			created      string
		)
		if err := rows.Scan(&c.ID, &c.RunID, &c.Name, &c.Shape, &c.Contact,
			&c.SelfDistance, &c.Exponent, &calibrated, &x30, &buildup,
			&points, &created); err != nil {
			return nil, errors.Wrap(err, "failed to scan calculation row")
		}

		c.Calibrated = calibrated != 0
		if x30.Valid {
			c.X30 = &x30.Float64
		}
		if buildup.Valid {
			c.Buildup = &buildup.Float64
		}
		if err := json.Unmarshal([]byte(points), &c.Points); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal points for calculation %d", c.ID)
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, errors.Wrapf(err, "failed to parse created_at for calculation %d", c.ID)
		}

		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate calculation rows")
	}
	return list, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
