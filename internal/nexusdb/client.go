// Package nexusdb reads the case-management system's reporting database,
// which keeps directory rows for employees that the live API no longer
// exposes directly.
package nexusdb

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/go-sql-driver/mysql"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

type Client struct {
	db *sql.DB
}

func NewClient(dsn string) (*Client, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to open nexus database", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// DirectoryEmployee is one employee row. PrimaryIdentifier carries the
// initials used for the organizational directory lookup.
type DirectoryEmployee struct {
	ActivityID        string
	PrimaryIdentifier string
}

// EmployeeByActivityID finds the directory row for an employee's internal
// activity identifier. Returns nil when no row matches.
func (c *Client) EmployeeByActivityID(ctx context.Context, activityID string) (*DirectoryEmployee, error) {
	const query = `SELECT activity_id, primary_identifier FROM employees WHERE activity_id = ? LIMIT 1`

	var emp DirectoryEmployee
	err := c.db.QueryRowContext(ctx, query, activityID).Scan(&emp.ActivityID, &emp.PrimaryIdentifier)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to query employee directory", err)
	}
	return &emp, nil
}
