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


// Package chunking splits document text into bounded, overlapping chunks.
//
// Three strategies are provided: fixed-size windows, paragraph packing, and
// sentence packing. The paragraph and sentence strategies fall back to the
// fixed-size strategy for any single unit larger than the target size, and
// tag the resulting chunks so the fallback is visible downstream.
//
// All offsets are rune offsets, so multi-byte text chunks the same way as
// ASCII. Strategy implementations are stateless; a Chunker is safe for
// concurrent use.
package chunking
