// SPDX-License-Identifier: MPL-2.0

// bashify builds self-extracting shell archives: single portable scripts
// that carry embedded files and a command sequence, extract into a private
// temp directory on the target, run, and clean up after themselves.
package main

func main() {
	Execute()
}
