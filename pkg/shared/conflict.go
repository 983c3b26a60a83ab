package shared

// mergeValues shallow-merges incoming onto existing. Two JSON-object-shaped
// values merge key-wise with incoming winning per key; two sequence-shaped
// values concatenate existing then incoming; anything else lets incoming
// replace.
func mergeValues(existing, incoming interface{}) interface{} {
	existingMap, existingIsMap := existing.(map[string]interface{})
	incomingMap, incomingIsMap := incoming.(map[string]interface{})
	if existingIsMap && incomingIsMap {
		merged := make(map[string]interface{}, len(existingMap)+len(incomingMap))
		for k, v := range existingMap {
			merged[k] = v
		}
		for k, v := range incomingMap {
			merged[k] = v
		}
		return merged
	}

	existingSlice, existingIsSlice := existing.([]interface{})
	incomingSlice, incomingIsSlice := incoming.([]interface{})
	if existingIsSlice && incomingIsSlice {
		merged := make([]interface{}, 0, len(existingSlice)+len(incomingSlice))
		merged = append(merged, existingSlice...)
		return append(merged, incomingSlice...)
	}

	return incoming
}
