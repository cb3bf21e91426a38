package crashreport

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"os"
	"path/filepath"
)

// Report identifies a crash report stored in <dir>/<component>/<id>/.
type Report struct {
	ID        uuid.UUID
	Component string
}

// Store manages the crash reports below a directory.
type Store struct {
	dir    string
	logger *zap.SugaredLogger
}

// NewStore returns a new Store for the crash reports below dir.
func NewStore(dir string, logger *zap.SugaredLogger) *Store {
	return &Store{dir: dir, logger: logger}
}

// All returns all crash reports. A missing directory yields no reports.
func (s *Store) All() ([]Report, error) {
	components, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "can't read crash report directory")
	}

	var reports []Report
	for _, component := range components {
		if !component.IsDir() {
			continue
		}

		entries, err := os.ReadDir(filepath.Join(s.dir, component.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "can't read crash reports of %q", component.Name())
		}

		for _, entry := range entries {
			id, err := uuid.Parse(entry.Name())
			if err != nil || !entry.IsDir() {
				continue
			}

			reports = append(reports, Report{ID: id, Component: component.Name()})
		}
	}

	return reports, nil
}

// Delete removes the crash report with the given ID, whatever component it belongs to,
// and reports whether there was such a report.
func (s *Store) Delete(id string) bool {
	parsed, err := uuid.Parse(id)
	if err != nil {
		s.logger.Warnw("Invalid crash report ID", zap.String("id", id), zap.Error(err))
		return false
	}

	reports, err := s.All()
	if err != nil {
		s.logger.Warnw("Can't delete crash report", zap.String("id", id), zap.Error(err))
		return false
	}

	for _, r := range reports {
		if r.ID != parsed {
			continue
		}

		path := filepath.Join(s.dir, r.Component, r.ID.String())
		s.logger.Infof("Deleting crash report %s", path)

		if err := os.RemoveAll(path); err != nil {
			s.logger.Warnw("Can't delete crash report", zap.String("path", path), zap.Error(err))
			return false
		}

		return true
	}

	s.logger.Debugf("No crash report with ID %s", parsed)

	return false
}
