/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements script persistence.
// The SQL store (SQLite locally, Postgres when shared) holds scripts, comments, versions and share tokens;
// its schema is managed by goose migrations embedded in the binary.
// Script files are standalone JSON documents written transactionally with timestamped backups in a
// backups folder next to the file, validated against an embedded JSON schema.
package storage
