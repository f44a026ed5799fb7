// Package eventfile reads and writes listsync event streams.
//
// A stream file names the list layout and the ordered events to deliver.
// Three encodings are accepted, chosen by file extension:
//
//	.yaml, .yml  YAML document (unknown fields rejected)
//	.json        single JSON document
//	.jsonl       one JSON record per line, with an optional header line
//	.cue         CUE, validated against the embedded #Stream schema
//
// YAML form:
//
//	mode: sorted        # sibling (default) or sorted
//	sort_by: score      # field path for sorted lists
//	events:
//	  - {kind: added, key: a, value: {score: 3}}
//	  - {kind: added, key: b, value: {score: 1}, after: a}
//	  - {kind: changed, key: a, value: {score: 0}}
//	  - {kind: loaded, signal: {page: 1}}
//
// An absent or null "after" means "place first". Values are JSON-like
// payloads without floats.
package eventfile
