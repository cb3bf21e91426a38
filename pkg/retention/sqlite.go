package retention

import (
	"context"
	"database/sql"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"time"
)

// schema specifies the retention database's structure.
// Times are Unix timestamps in seconds, durations are in seconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS comment (
    id INTEGER PRIMARY KEY,
    host_name TEXT NOT NULL,
    service_description TEXT,
    author TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL DEFAULT '',
    entry_type INTEGER NOT NULL DEFAULT 1,
    entry_time INTEGER NOT NULL DEFAULT 0,
    persistent INTEGER NOT NULL DEFAULT 0,
    expire_time INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS downtime (
    id INTEGER PRIMARY KEY,
    host_name TEXT NOT NULL,
    service_description TEXT,
    author TEXT NOT NULL DEFAULT '',
    comment TEXT NOT NULL DEFAULT '',
    entry_time INTEGER NOT NULL DEFAULT 0,
    start_time INTEGER NOT NULL DEFAULT 0,
    end_time INTEGER NOT NULL DEFAULT 0,
    fixed INTEGER NOT NULL DEFAULT 1,
    duration INTEGER NOT NULL DEFAULT 0,
    triggered_by INTEGER NOT NULL DEFAULT 0
)`,
}

type commentRow struct {
	Id                 uint64         `db:"id"`
	HostName           string         `db:"host_name"`
	ServiceDescription sql.NullString `db:"service_description"`
	Author             string         `db:"author"`
	Text               string         `db:"text"`
	EntryType          uint8          `db:"entry_type"`
	EntryTime          int64          `db:"entry_time"`
	Persistent         bool           `db:"persistent"`
	ExpireTime         int64          `db:"expire_time"`
}

type downtimeRow struct {
	Id                 uint64         `db:"id"`
	HostName           string         `db:"host_name"`
	ServiceDescription sql.NullString `db:"service_description"`
	Author             string         `db:"author"`
	Comment            string         `db:"comment"`
	EntryTime          int64          `db:"entry_time"`
	StartTime          int64          `db:"start_time"`
	EndTime            int64          `db:"end_time"`
	Fixed              bool           `db:"fixed"`
	Duration           int64          `db:"duration"`
	TriggeredBy        uint64         `db:"triggered_by"`
}

// SQLite loads comments and downtimes from a SQLite retention database
// and resolves their host and service names against the monitoring core's objects.
type SQLite struct {
	db      *sqlx.DB
	objects core.Objects
	logger  *zap.SugaredLogger
}

// OpenSQLite opens the SQLite database at path and ensures it contains the retention schema.
func OpenSQLite(path string, objects core.Objects, logger *zap.SugaredLogger) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, errors.Wrap(err, "can't open SQLite database")
	}

	for _, ddl := range schema {
		if _, err := db.Exec(ddl); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "can't import schema into SQLite database")
		}
	}

	return &SQLite{db: db, objects: objects, logger: logger}, nil
}

// DB returns the underlying database handle.
func (s *SQLite) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load implements the Loader interface.
func (s *SQLite) Load(ctx context.Context) (Comments, Downtimes, error) {
	var commentRows []commentRow
	if err := s.db.SelectContext(ctx, &commentRows, `SELECT * FROM comment`); err != nil {
		return nil, nil, errors.Wrap(err, "can't select comments")
	}

	var downtimeRows []downtimeRow
	if err := s.db.SelectContext(ctx, &downtimeRows, `SELECT * FROM downtime`); err != nil {
		return nil, nil, errors.Wrap(err, "can't select downtimes")
	}

	comments := make(Comments, len(commentRows))
	for _, row := range commentRows {
		host, service, ok := s.resolve(row.HostName, row.ServiceDescription)
		if !ok {
			s.logger.Debugf("Ignoring comment %d of unknown object %q", row.Id, row.HostName)
			continue
		}

		comments[row.Id] = &core.Comment{
			ID:         row.Id,
			Host:       host,
			Service:    service,
			Author:     row.Author,
			Text:       row.Text,
			EntryType:  core.CommentEntryType(row.EntryType),
			EntryTime:  unix(row.EntryTime),
			Persistent: row.Persistent,
			ExpireTime: unix(row.ExpireTime),
		}
	}

	downtimes := make(Downtimes, len(downtimeRows))
	for _, row := range downtimeRows {
		host, service, ok := s.resolve(row.HostName, row.ServiceDescription)
		if !ok {
			s.logger.Debugf("Ignoring downtime %d of unknown object %q", row.Id, row.HostName)
			continue
		}

		downtimes[row.Id] = &core.Downtime{
			ID:          row.Id,
			Host:        host,
			Service:     service,
			Author:      row.Author,
			Comment:     row.Comment,
			EntryTime:   unix(row.EntryTime),
			StartTime:   unix(row.StartTime),
			EndTime:     unix(row.EndTime),
			Fixed:       row.Fixed,
			Duration:    time.Duration(row.Duration) * time.Second,
			TriggeredBy: row.TriggeredBy,
		}
	}

	return comments, downtimes, nil
}

func (s *SQLite) resolve(hostName string, serviceDescription sql.NullString) (*core.Host, *core.Service, bool) {
	if !serviceDescription.Valid {
		host := s.objects.FindHost(hostName)
		return host, nil, host != nil
	}

	service := s.objects.FindService(hostName, serviceDescription.String)
	if service == nil {
		return nil, nil, false
	}

	return service.Host, service, true
}

func unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}

	return time.Unix(sec, 0)
}
