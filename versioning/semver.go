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


package versioning

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/docpipe/core"
)

const firstVersionNumber = "1.0.0"

// nextVersionNumber computes the version number that follows the highest
// well-formed "major.minor.patch" number present in versions. Malformed
// numbers are skipped; with none parseable the numbering restarts at
// firstVersionNumber.
func nextVersionNumber(versions []*core.DocumentVersion) string {
	var maxMajor, maxMinor, maxPatch int
	found := false

	for _, v := range versions {
		major, minor, patch, ok := parseVersionNumber(v.VersionNumber)
		if !ok {
			continue
		}
		if !found || greater(major, minor, patch, maxMajor, maxMinor, maxPatch) {
			maxMajor, maxMinor, maxPatch = major, minor, patch
			found = true
		}
	}

	if !found {
		return firstVersionNumber
	}
	return fmt.Sprintf("%d.%d.%d", maxMajor, maxMinor, maxPatch+1)
}

func parseVersionNumber(s string) (major, minor, patch int, ok bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}

	var err error
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if patch, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return major, minor, patch, true
}

func greater(aMaj, aMin, aPat, bMaj, bMin, bPat int) bool {
	if aMaj != bMaj {
		return aMaj > bMaj
	}
	if aMin != bMin {
		return aMin > bMin
	}
	return aPat > bPat
}
