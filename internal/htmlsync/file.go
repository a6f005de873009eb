package htmlsync

import (
	"os"

	"git.home.luguber.info/inful/sitekeeper/internal/content"
	"git.home.luguber.info/inful/sitekeeper/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekeeper/internal/logfields"
	"git.home.luguber.info/inful/sitekeeper/internal/storage"
)

// SyncFile applies Sync to the document at path and writes the result
// atomically. Writers of the same document are serialized. The file is only
// rewritten when its content changes.
func (s *Synchronizer) SyncFile(path string, kind content.Kind, seq []content.Record) (Report, error) {
	var report Report
	err := s.docLocks.With(path, func() error {
		source, err := readDocument(path)
		if err != nil {
			return err
		}
		updated, r, err := s.Sync(source, kind, seq)
		if err != nil {
			return err
		}
		report = r
		if !r.Changed {
			return nil
		}
		return writeDocument(path, updated)
	})
	if err != nil {
		return Report{}, err
	}
	s.logger.Debug("Document synchronized",
		logfields.Kind(string(kind)),
		logfields.Path(path),
		logfields.Count(len(seq)))
	return report, nil
}

// AdoptFile runs Adopt on the document at path and writes the result.
func (s *Synchronizer) AdoptFile(path string) ([]AdoptResult, error) {
	var results []AdoptResult
	err := s.docLocks.With(path, func() error {
		source, err := readDocument(path)
		if err != nil {
			return err
		}
		updated, res, err := Adopt(source)
		if err != nil {
			return err
		}
		results = res
		for _, r := range res {
			if r.Adopted {
				return writeDocument(path, updated)
			}
		}
		return nil
	})
	return results, err
}

// InspectFile runs Inspect on the document at path.
func (s *Synchronizer) InspectFile(path string) (map[Anchor]int, error) {
	source, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	return s.Inspect(source)
}

func readDocument(path string) ([]byte, error) {
	// #nosec G304 -- document path comes from configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read document").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return data, nil
}

func writeDocument(path string, data []byte) error {
	if err := storage.WriteFileAtomic(path, data, storage.FileMode(path, 0o644)); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write document").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return nil
}
