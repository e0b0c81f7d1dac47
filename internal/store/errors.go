/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

import "errors"

// ErrCannotDeleteLastProject guards the last remaining project.
var ErrCannotDeleteLastProject = errors.New("não é possível excluir o único projeto existente")

// ErrInvalidBackup rejects import blobs missing the required top-level keys.
var ErrInvalidBackup = errors.New("arquivo de backup inválido ou corrompido")

// ValidationError reports a missing precondition before an operation. It is
// surfaced inline; the operation aborts without touching state.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(msg string) error { return &ValidationError{Message: msg} }
