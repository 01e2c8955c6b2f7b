package graph

import "encoding/json"

// MarshalJSON flattens Attrs alongside the fixed fields so the wire format
// matches spec §6.2's "{id, kind, file_path, line_range, source_code,
// ...kind-specific-fields}" shape. encoding/json sorts map keys when
// marshaling map[string]any, which keeps the nodes stream byte-identical
// across reruns (spec §8.1) for a fixed graph.
func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Attrs)+5)
	for k, v := range n.Attrs {
		out[k] = v
	}
	out["id"] = n.ID
	out["kind"] = n.Kind
	out["file_path"] = n.FilePath
	out["line_range"] = [2]int{n.LineRange.Start, n.LineRange.End}
	out["source_code"] = n.SourceCode
	return json.Marshal(out)
}
