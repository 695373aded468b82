package rewrite

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"scenetune/internal/param"
	"scenetune/internal/scan"
)

const script = `PARAMETERS = {
    # Wave Parameters
    "wave_speed": {
        "value": 300.0,  # m/s
        "type": float,
        "min": 0.0,
        "max": 1000.0,
    },
    "cycles": {
        "value": 4,
        "type": int,
    },
    "decay": {
        "value": 1.5e-3,
        "type": float,
    },
    "show_grid": {
        "value": True,
        "type": bool,
    },
    "label": {
        "value": "standing wave",
        "type": str,
    },
}
`

func scanScript(t *testing.T) (*param.Model, *scan.SpanIndex) {
	t.Helper()
	res, err := scan.Scan([]byte(script))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return res.Model, res.Spans
}

func TestApplyEmptyEditsRoundTrip(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)
	out, outIdx, err := Apply([]byte(script), idx, model, nil)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if string(out) != script {
		t.Error("empty edit list changed the text")
	}
	if outIdx != idx {
		t.Error("empty edit list replaced the span index")
	}
}

func TestApplyIsolation(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)

	out, _, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "wave_speed", Value: param.FloatValue(275.5)},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	want := strings.Replace(script, "300.0", "275.5", 1)
	if string(out) != want {
		t.Errorf("rewritten text:\n%s\nwant:\n%s", out, want)
	}
	// Everything else, including the trailing comment on the edited line,
	// must survive byte for byte.
	if !strings.Contains(string(out), `"value": 275.5,  # m/s`) {
		t.Error("trailing comment on the edited line was disturbed")
	}
}

func TestApplyRescanMatchesShiftedIndex(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)

	out, outIdx, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "wave_speed", Value: param.FloatValue(7.5)}, // shorter literal shifts later spans
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	res, err := scan.Scan(out)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	for _, name := range res.Spans.Names() {
		fresh, _ := res.Spans.Get(name)
		shifted, ok := outIdx.Get(name)
		if !ok {
			t.Errorf("shifted index lost %s", name)
			continue
		}
		if fresh.Start != shifted.Start || fresh.End != shifted.End {
			t.Errorf("%s span = [%d,%d), rescan says [%d,%d)",
				name, shifted.Start, shifted.End, fresh.Start, fresh.End)
		}
	}
}

func TestApplyFloatStylePreserved(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)

	out, _, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "wave_speed", Value: param.FloatValue(250)}, // whole number keeps .0
		{Name: "decay", Value: param.FloatValue(0.002)},    // keeps exponent form
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, `"value": 250.0,  # m/s`) {
		t.Error("dotted float lost its trailing .0")
	}
	if !strings.Contains(text, "2e-03") && !strings.Contains(text, "2e-3") {
		t.Errorf("exponent form not preserved:\n%s", text)
	}
}

func TestApplyMultiEditBatch(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)

	out, outIdx, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "label", Value: param.TextValue(`say "hi"`)},
		{Name: "cycles", Value: param.IntValue(12)},
		{Name: "show_grid", Value: param.BoolValue(false)},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	text := string(out)
	if !strings.Contains(text, `"value": 12,`) {
		t.Error("cycles not rewritten")
	}
	if !strings.Contains(text, `"value": False,`) {
		t.Error("show_grid not rewritten")
	}
	// Replacement text is escaped for the original double-quote delimiters.
	if !strings.Contains(text, `"value": "say \"hi\"",`) {
		t.Errorf("label not escaped for its quote style:\n%s", text)
	}

	span, _ := outIdx.Get("label")
	if got := string(out[span.Start:span.End]); got != `say \"hi\"` {
		t.Errorf("label span covers %q", got)
	}
}

func TestApplyUnknownParameter(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)
	_, _, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "missing", Value: param.IntValue(1)},
	})
	if !errors.Is(err, ErrUnknownParameter) {
		t.Fatalf("error = %v, want ErrUnknownParameter", err)
	}
}

func TestApplyValidationFailureLeavesSourceUntouched(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)
	source := []byte(script)

	_, _, err := Apply(source, idx, model, []Edit{
		{Name: "cycles", Value: param.IntValue(2)},
		{Name: "wave_speed", Value: param.FloatValue(2000)}, // above max
	})
	var verr *param.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *param.ValidationError", err)
	}
	if verr.Name != "wave_speed" {
		t.Errorf("failed record = %q, want wave_speed", verr.Name)
	}
	if !bytes.Equal(source, []byte(script)) {
		t.Error("source mutated by a failed batch")
	}
}

func TestApplyWrongKindRejected(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)
	_, _, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "show_grid", Value: param.TextValue("yes")},
	})
	var verr *param.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *param.ValidationError", err)
	}
}

func TestApplyDuplicateNameInBatch(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)
	_, _, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "cycles", Value: param.IntValue(1)},
		{Name: "cycles", Value: param.IntValue(2)},
	})
	if !errors.Is(err, ErrSpanConflict) {
		t.Fatalf("error = %v, want ErrSpanConflict", err)
	}
}

func TestApplyStaleSpanRejected(t *testing.T) {
	t.Parallel()
	model, _ := scanScript(t)

	stale := scan.NewSpanIndex()
	stale.Add(&scan.ValueSpan{Name: "cycles", Start: 10_000, End: 10_001, Kind: param.Int})
	_, _, err := Apply([]byte(script), stale, model, []Edit{
		{Name: "cycles", Value: param.IntValue(9)},
	})
	if !errors.Is(err, ErrSpanConflict) {
		t.Fatalf("error = %v, want ErrSpanConflict", err)
	}
}

func TestApplyIntWidensForFloatRecord(t *testing.T) {
	t.Parallel()
	model, idx := scanScript(t)
	out, _, err := Apply([]byte(script), idx, model, []Edit{
		{Name: "wave_speed", Value: param.IntValue(500)},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(string(out), `"value": 500.0,  # m/s`) {
		t.Errorf("int edit on float record did not keep dotted form:\n%s", out)
	}
}
