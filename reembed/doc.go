// Copyright 2025 SeisSparrow
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

// Package reembed rewrites the vectors of every stored transcript document
// with a new or updated embedding model.
//
// Documents are read in batches, embedded with retry and exponential backoff,
// normalised for cosine similarity and updated in place. Text, timing metadata
// and document IDs are left untouched.
package reembed
