package risk

import "fmt"

// MarketQuoteSensitivities converts curve-parameter sensitivities into
// market-quote sensitivities. Each input block is multiplied by the
// calibration jacobian attached to its source curve, and the resulting
// quote sensitivities are split back across the curves the jacobian spans.
// Contributions landing on the same curve are summed. Output blocks appear
// in first-contribution order.
func MarketQuoteSensitivities(group *CurveGroup, sens []ParameterSensitivity) ([]ParameterSensitivity, error) {
	combined := map[string]*ParameterSensitivity{}
	var order []string

	for _, ps := range sens {
		entry, ok := group.lookup(ps.CurveName)
		if !ok {
			return nil, fmt.Errorf("MarketQuoteSensitivities: curve %q not in group", ps.CurveName)
		}
		jac, ok := entry.c.Jacobian()
		if !ok {
			return nil, fmt.Errorf("MarketQuoteSensitivities: curve %q: %w", ps.CurveName, ErrMissingJacobian)
		}

		quoteSens, err := jac.Apply(ps.Values)
		if err != nil {
			return nil, fmt.Errorf("MarketQuoteSensitivities: curve %q: %w", ps.CurveName, err)
		}

		offset := 0
		for _, blk := range jac.Blocks() {
			part := quoteSens[offset : offset+blk.ParameterCount]
			offset += blk.ParameterCount

			currency := ps.Currency
			if target, ok := group.lookup(blk.Name); ok {
				currency = target.currency
			}

			agg, ok := combined[blk.Name]
			if !ok {
				combined[blk.Name] = &ParameterSensitivity{
					CurveName: blk.Name,
					Currency:  currency,
					Values:    append([]float64(nil), part...),
				}
				order = append(order, blk.Name)
				continue
			}
			if len(agg.Values) != len(part) {
				return nil, fmt.Errorf("MarketQuoteSensitivities: curve %q receives blocks of %d and %d quotes",
					blk.Name, len(agg.Values), len(part))
			}
			for i, v := range part {
				agg.Values[i] += v
			}
		}
	}

	out := make([]ParameterSensitivity, len(order))
	for i, name := range order {
		out[i] = *combined[name]
	}
	return out, nil
}
