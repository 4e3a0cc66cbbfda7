package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
)

// LocalSource reads incident logs from the local filesystem. Layout:
//
//	{root}/{incident_id}/{incident_id}.log
//	{root}/{incident_id}.log            (fallback)
//	{root}/{group}/{incident_id}.log    (fallback, routed log group)
type LocalSource struct {
	Root string
}

func NewLocalSource(root string) *LocalSource {
	return &LocalSource{Root: root}
}

// Fetch implementasi logs.Source
func (s *LocalSource) Fetch(ctx context.Context, incidentID, group string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	paths := []string{
		filepath.Join(s.Root, incidentID, incidentID+".log"),
		filepath.Join(s.Root, incidentID+".log"),
	}
	if group != "" {
		paths = append(paths, filepath.Join(s.Root, group, incidentID+".log"))
	}

	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			return string(b), nil
		}
		if os.IsNotExist(err) {
			continue
		}
		// Permission or I/O failure is a backend problem, not a missing log.
		return "", fmt.Errorf("%w: reading %s: %v", logs.ErrUnavailable, p, err)
	}

	return "", &logs.NotFoundError{IncidentID: incidentID, Attempted: paths}
}
