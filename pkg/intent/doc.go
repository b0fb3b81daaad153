// Package intent defines the input records of a bubble chart.
//
// An [Intent] is one weighted, domain-tagged record. Intents are grouped by
// their domain string; the order of domains is the order in which they first
// appear in the input, and every layout policy relies on that order for
// colour assignment and grid placement.
//
// # Filtering
//
// Only intents with a strictly positive value take part in a layout.
// [Filter] drops zero, negative and NaN values while keeping the input order:
//
//	data := intent.Filter(raw)
//	domains := intent.Domains(data)
//
// # Reading
//
// [Read] decodes JSON or YAML documents. Both a bare list and an object with
// an "intents" list are accepted:
//
//	[{"id": "1", "name": "greeting", "domain": "smalltalk", "value": 12}]
//
//	intents:
//	  - {id: "1", name: greeting, domain: smalltalk, value: 12}
package intent
