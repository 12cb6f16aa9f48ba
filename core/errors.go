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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunkConfig indicates a ChunkConfig failed validation.
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrUnknownStrategy indicates an unrecognized chunking strategy.
	ErrUnknownStrategy = errors.New("unknown chunking strategy")

	// ErrEmptyContent indicates document content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidVersionStatus indicates an invalid VersionStatus value.
	ErrInvalidVersionStatus = errors.New("invalid version status")
)
