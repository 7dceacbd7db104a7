//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"errors"

	"github.com/biogo/hts/sam"
)

// Policy selects which alignment classes are countable. The zero value
// counts primary, QC-passing, non-duplicate alignments of every template
// segment.
type Policy struct {
	Secondary     bool
	FailedQC      bool
	Duplicate     bool
	Supplementary bool
	// OnlyStart/OnlyEnd restrict multi-segment templates to the segment
	// carrying the template start or end.
	OnlyStart bool
	OnlyEnd   bool
}

// Validate rejects conflicting segment restrictions.
func (p Policy) Validate() error {
	if p.OnlyStart && p.OnlyEnd {
		return errors.New("cannot restrict counting to both template starts and template ends")
	}
	return nil
}

// Classify reports whether an alignment with the given flags is countable
// under the policy, and whether it is reverse-complemented.
func (p Policy) Classify(flags sam.Flags) (countable, reverse bool) {
	reverse = flags&sam.Reverse != 0
	switch {
	case flags&sam.Unmapped != 0:
		return false, reverse
	case flags&sam.Secondary != 0 && !p.Secondary:
		return false, reverse
	case flags&sam.QCFail != 0 && !p.FailedQC:
		return false, reverse
	case flags&sam.Duplicate != 0 && !p.Duplicate:
		return false, reverse
	case flags&sam.Supplementary != 0 && !p.Supplementary:
		return false, reverse
	}
	if flags&sam.Paired != 0 {
		if p.OnlyStart && flags&sam.Read1 == 0 {
			return false, reverse
		}
		if p.OnlyEnd && flags&sam.Read2 == 0 {
			return false, reverse
		}
	}
	return true, reverse
}
