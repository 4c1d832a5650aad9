// Package store persists reference records together with their identifier
// indexes. Index entries are written before the record and removed before it,
// so a reader can observe an index whose record is gone but never a record
// that is unreachable through its indexes.
package store

import (
	"fmt"

	"docverify/pkg/platform/sentinel"
)

var (
	ErrIDNumberTaken = fmt.Errorf("id number already registered: %w", sentinel.ErrConflict)
	ErrAadhaarTaken  = fmt.Errorf("aadhaar number already registered: %w", sentinel.ErrConflict)
)
