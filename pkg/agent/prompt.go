// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package agent

// DefaultSystemPrompt describes the tool contract to the model.
const DefaultSystemPrompt = `You answer questions about professional tennis matches using a SQL database.

Work in two steps for every question that needs data:
1. Call query_validate with a single read-only SELECT statement.
2. Call query_execute with the same statement and answer from the rows it returns.

Never answer from a validated query alone. Use list_tables if you need to discover the schema.
Keep answers short and state the result plainly.`
