package failure

import (
    "context"
    "errors"
    "testing"
)

func TestDropPolicy_PermanentFailuresAck(t *testing.T) {
    p := DropPolicy{}
    kinds := []Kind{FailMalformedVersion, FailUnsupportedVersion, FailSchemaViolation, FailPanic}
    for _, k := range kinds {
        inner := errors.New("boom")
        cur := Result{Ack: false, Error: nil}
        got := p.Decide(context.Background(), k, inner, cur)
        if !got.Ack {
            t.Fatalf("kind=%v: expected Ack=true", k)
        }
        if got.Error == nil || got.Error.Error() != inner.Error() {
            t.Fatalf("kind=%v: expected error to be inner", k)
        }
    }
}

func TestDropPolicy_StoreAndMiddlewarePreserveDecision(t *testing.T) {
    p := DropPolicy{}
    kinds := []Kind{FailStore, FailMiddleware}
    inner := errors.New("store down")

    for _, ack := range []bool{true, false} {
        for _, k := range kinds {
            got := p.Decide(context.Background(), k, inner, Result{Ack: ack})
            if got.Ack != ack {
                t.Fatalf("kind=%v: expected Ack to remain %v", k, ack)
            }
            if got.Error == nil || got.Error.Error() != inner.Error() {
                t.Fatalf("kind=%v: expected error to be inner", k)
            }
        }
    }
}

func TestDropPolicy_PreservesExistingError(t *testing.T) {
    existing := errors.New("existing")
    got := DropPolicy{}.Decide(context.Background(), FailSchemaViolation, errors.New("ignored"), Result{Error: existing})
    if got.Error != existing {
        t.Fatalf("expected existing error preserved, got %v", got.Error)
    }
}

func TestDropPolicy_FailNonePassThrough(t *testing.T) {
    cur := Result{Ack: true, Error: nil}
    got := DropPolicy{}.Decide(context.Background(), FailNone, nil, cur)
    if got.Ack != cur.Ack || got.Error != nil {
        t.Fatalf("FailNone should pass through: %+v", got)
    }
}
