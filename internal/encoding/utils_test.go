package encoding

import (
	"math"
	"reflect"
	"testing"
)

func TestEncodeDecodeVectorRoundTrip(t *testing.T) {
	vector := []float32{1.5, -2.25, 0, 3.125}
	data, err := EncodeVector(vector)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeVector(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(got, vector) {
		t.Fatalf("expected %v, got %v", vector, got)
	}
}

func TestEncodeVectorRejectsNil(t *testing.T) {
	if _, err := EncodeVector(nil); err != ErrInvalidVector {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
}

func TestEncodeDecodeEmptyVector(t *testing.T) {
	data, err := EncodeVector([]float32{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeVector(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty vector, got %v", got)
	}
}

func TestDecodeVectorRejectsTruncatedData(t *testing.T) {
	if _, err := DecodeVector([]byte{1, 2}); err != ErrInvalidVector {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
}

func TestDecodeVectorRejectsShortBody(t *testing.T) {
	data, err := EncodeVector([]float32{1, 2, 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	truncated := data[:len(data)-2]
	if _, err := DecodeVector(truncated); err != ErrInvalidVector {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
}

func TestEncodeDecodeMetadataRoundTrip(t *testing.T) {
	meta := map[string]string{"source": "wiki", "lang": "en"}
	encoded, err := EncodeMetadata(meta)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeMetadata(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, meta) {
		t.Fatalf("expected %v, got %v", meta, decoded)
	}
}

func TestEncodeMetadataNilReturnsEmptyString(t *testing.T) {
	got, err := EncodeMetadata(nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestDecodeMetadataEmptyStringReturnsNil(t *testing.T) {
	got, err := DecodeMetadata("")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestValidateVectorRejectsEmpty(t *testing.T) {
	if err := ValidateVector(nil); err != ErrInvalidVector {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
	if err := ValidateVector([]float32{}); err != ErrInvalidVector {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
}

func TestValidateVectorRejectsNaNAndInf(t *testing.T) {
	if err := ValidateVector([]float32{1, float32(math.NaN())}); err != ErrInvalidVector {
		t.Fatalf("expected ErrInvalidVector for NaN, got %v", err)
	}
	if err := ValidateVector([]float32{1, float32(math.Inf(1))}); err != ErrInvalidVector {
		t.Fatalf("expected ErrInvalidVector for +Inf, got %v", err)
	}
}

func TestValidateVectorAcceptsNormalVector(t *testing.T) {
	if err := ValidateVector([]float32{1, 2, 3}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
