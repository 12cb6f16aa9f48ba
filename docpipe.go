// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package docpipe assembles the document ingestion system: a badger-backed
// store, version manager, progress tracker, and ingestion pipeline wired
// together behind one handle.
package docpipe

import (
	"log/slog"

	"github.com/poiesic/docpipe/pipeline"
	"github.com/poiesic/docpipe/progress"
	"github.com/poiesic/docpipe/storage"
	"github.com/poiesic/docpipe/storage/badger"
	"github.com/poiesic/docpipe/versioning"
)

// Store owns the storage backend and the long-lived managers built on it.
type Store struct {
	backend      *badger.Backend
	versionRepo  storage.VersionRepository
	documentRepo storage.DocumentRepository
	snapshots    storage.SnapshotStore
	versions     *versioning.Manager
	tracker      *progress.Tracker
	logger       *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	inMemory bool
	logger   *slog.Logger
}

// WithInMemoryBackend keeps all data in memory, for tests and tooling.
func WithInMemoryBackend() StoreOption {
	return func(o *storeOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open creates a Store at the given path, restoring any persisted
// version and progress state.
func Open(filePath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	versionRepo, err := badger.NewVersionRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		versionRepo.Close()
		backend.Close()
		return nil, err
	}

	snapshots, err := badger.NewSnapshotStore(backend)
	if err != nil {
		documentRepo.Close()
		versionRepo.Close()
		backend.Close()
		return nil, err
	}

	versions, err := versioning.NewManager(versionRepo, documentRepo,
		versioning.WithLogger(options.logger))
	if err != nil {
		snapshots.Close()
		documentRepo.Close()
		versionRepo.Close()
		backend.Close()
		return nil, err
	}

	tracker, err := progress.NewTracker(snapshots,
		progress.WithLogger(options.logger))
	if err != nil {
		snapshots.Close()
		documentRepo.Close()
		versionRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Store{
		backend:      backend,
		versionRepo:  versionRepo,
		documentRepo: documentRepo,
		snapshots:    snapshots,
		versions:     versions,
		tracker:      tracker,
		logger:       options.logger,
	}, nil
}

// Close flushes the progress tracker and shuts down the backend.
func (s *Store) Close() error {
	if err := s.tracker.Close(); err != nil {
		s.logger.Error("error closing progress tracker", "err", err)
	}
	if err := s.snapshots.Close(); err != nil {
		s.logger.Error("error closing snapshot store", "err", err)
	}
	if err := s.documentRepo.Close(); err != nil {
		s.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := s.versionRepo.Close(); err != nil {
		s.logger.Error("error closing version repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// VersionManager returns the document version manager.
func (s *Store) VersionManager() *versioning.Manager {
	return s.versions
}

// ProgressTracker returns the progress tracker.
func (s *Store) ProgressTracker() *progress.Tracker {
	return s.tracker
}

// VersionRepository returns the underlying version repository.
func (s *Store) VersionRepository() storage.VersionRepository {
	return s.versionRepo
}

// DocumentRepository returns the underlying document repository.
func (s *Store) DocumentRepository() storage.DocumentRepository {
	return s.documentRepo
}

// NewPipeline builds an ingestion pipeline over this store.
func (s *Store) NewPipeline(cfg pipeline.Config, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	opts = append([]pipeline.Option{pipeline.WithLogger(s.logger)}, opts...)
	return pipeline.NewPipeline(s.versions, s.tracker, cfg, opts...)
}
