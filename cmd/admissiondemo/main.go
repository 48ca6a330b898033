/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// admissiondemo stands up examples/httpserver behind the admission
// engine so the table's behavior can be driven with curl instead of a
// test harness.
package main

import "github.com/matchgate/admission/cmd/admissiondemo/cmd"

func main() {
	cmd.Execute()
}
