// Package codec reads and writes model data files held in a table.
//
// A file has a definition block followed by a data block:
//
//	NumInputs,2
//	NumOutputs,1
//	ElementTypes,Input,Input,Output
//	ElementIndices,0,1,0
//	Names,x1,x2,y1
//	MinimalValues,0,0,-1
//	MaximalValues,1,1,1
//	Data
//	,0.5,0.25,0.1
//
// Every row of the definition block starts with a keyword in its first
// non-empty cell. Values follow on the same row or, when nothing follows the
// keyword, on the next row. Each value column belongs to one input or output
// element; the mapping comes from the ElementTypes and ElementIndices rows
// or, when those are absent, is inferred from the first data row and the
// declared counts.
//
// Writer and Reader share Options. The Reader accepts both layouts
// regardless of KeyAndDataInSameRow.
package codec
