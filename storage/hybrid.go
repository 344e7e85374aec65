package storage

import (
	"context"
	"fmt"

	"fithub/models"
	"fithub/services"
)

// SharedCollections live in the relational backend when running remotely.
var SharedCollections = models.NewCollectionSet(
	models.CollVenues,
	models.CollEvents,
	models.CollEnrollments,
	models.CollTeams,
	models.CollChampionships,
	models.CollHistory,
	models.CollRanking,
)

// RemoteBackend is the relational side of a Hybrid.
type RemoteBackend interface {
	services.Backend
	services.Refresher
}

// Hybrid routes shared collections to the remote backend and keeps every
// device-only collection in the local store.
type Hybrid struct {
	local  *Local
	remote RemoteBackend
}

func NewHybrid(local *Local, remote RemoteBackend) *Hybrid {
	return &Hybrid{local: local, remote: remote}
}

// Load reads local collections first; remote data then replaces the shared ones.
func (h *Hybrid) Load(ctx context.Context, st *models.State) error {
	if err := h.local.load(ctx, st, localCollections()); err != nil {
		return err
	}
	if err := h.remote.Load(ctx, st); err != nil {
		return fmt.Errorf("remote load: %w", err)
	}
	return nil
}

// Persist writes the remote part first; local blobs are only written after
// the remote side accepted the change.
func (h *Hybrid) Persist(ctx context.Context, st *models.State, dirty models.CollectionSet) error {
	remote := models.NewCollectionSet()
	local := models.NewCollectionSet()
	for c := range dirty {
		if SharedCollections.Has(c) {
			remote.Add(c)
		} else {
			local.Add(c)
		}
	}
	if len(remote) > 0 {
		if err := h.remote.Persist(ctx, st, remote); err != nil {
			return fmt.Errorf("remote persist: %w", err)
		}
	}
	return h.local.Persist(ctx, st, local)
}

func (h *Hybrid) Refresh(ctx context.Context, st *models.State) error {
	return h.remote.Refresh(ctx, st)
}

func localCollections() []models.Collection {
	out := make([]models.Collection, 0, len(models.AllCollections))
	for _, c := range models.AllCollections {
		if !SharedCollections.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
