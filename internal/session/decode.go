package session

import (
	"hdcmind/internal/algebra"
	"hdcmind/internal/bitvector"
	"hdcmind/internal/nlgen"
	"hdcmind/internal/prove"
	"hdcmind/internal/query"
)

// DecodeMaxPositions caps how many argument positions Decode attempts.
const DecodeMaxPositions = 5

// DecodedArg is one recovered argument, with the similarity its
// winning vocabulary entry scored.
type DecodedArg struct {
	Value      string
	Similarity float64
}

// Decoded is decode's output: the best-guess operator and as many
// leading arguments as decoded above threshold.
type Decoded struct {
	Operator           string
	OperatorSimilarity float64
	Args               []DecodedArg
}

// Decode recovers a statement's surface form from its vector: best
// operator by similarity against the operator table, then for each
// position up to DecodeMaxPositions, extract vector ⊕ stamp(op) ⊕ Pi
// and top-1 against the full vocabulary, stopping at the first position
// whose best match does not clear the query engine's similarity
// threshold.
func (s *Session) Decode(vec bitvector.BitVector) (Decoded, error) {
	operatorTable := s.operatorVectors()

	top, err := algebra.TopK(vec, operatorTable, 1)
	if err != nil {
		return Decoded{}, err
	}
	if len(top) == 0 {
		return Decoded{}, nil
	}
	result := Decoded{Operator: top[0].Name, OperatorSimilarity: top[0].Similarity}

	opVec, err := s.Vocab.GetOrCreate(result.Operator)
	if err != nil {
		return Decoded{}, err
	}
	acc, err := algebra.Bind(vec, opVec)
	if err != nil {
		return Decoded{}, err
	}

	snapshot := s.Vocab.Snapshot()
	for i := 1; i <= DecodeMaxPositions; i++ {
		pos, err := s.Positions.Position(i, s.D)
		if err != nil {
			return Decoded{}, err
		}
		raw, err := algebra.Bind(acc, pos)
		if err != nil {
			return Decoded{}, err
		}
		topArg, err := algebra.TopK(raw, snapshot, 1)
		if err != nil {
			return Decoded{}, err
		}
		if len(topArg) == 0 || topArg[0].Similarity <= query.SimilarityThreshold {
			break
		}
		result.Args = append(result.Args, DecodedArg{Value: topArg[0].Name, Similarity: topArg[0].Similarity})
	}
	return result, nil
}

// operatorVectors returns the vectors of every name ever used as a
// statement operator, falling back to the whole vocabulary before any
// statement has been learned.
func (s *Session) operatorVectors() map[string]bitvector.BitVector {
	if len(s.operators) == 0 {
		return s.Vocab.Snapshot()
	}
	out := make(map[string]bitvector.BitVector, len(s.operators))
	for name := range s.operators {
		if v, ok := s.Vocab.Get(name); ok {
			out[name] = v
		}
	}
	return out
}

// Summarize decodes vec and hands the (operator, args) tuple to the
// text generator.
func (s *Session) Summarize(vec bitvector.BitVector) (string, error) {
	decoded, err := s.Decode(vec)
	if err != nil {
		return "", err
	}
	args := make([]string, len(decoded.Args))
	for i, a := range decoded.Args {
		args[i] = a.Value
	}
	return nlgen.Generate(decoded.Operator, args), nil
}

// Elaborate walks a proof's step list and hands each step to the text
// generator, returning the concatenated narrative.
func (s *Session) Elaborate(steps []prove.Step) string {
	out := make([]nlgen.Step, len(steps))
	for i, st := range steps {
		out[i] = nlgen.Step{
			Operation:  st.Operation,
			Fact:       st.Fact,
			Rule:       st.Rule,
			Confidence: st.Confidence,
		}
	}
	return nlgen.Elaborate(out)
}
