package storage

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseID(t *testing.T) {
	valid := primitive.NewObjectID()

	tests := []struct {
		name    string
		in      string
		want    primitive.ObjectID
		wantErr bool
	}{
		{name: "valid id", in: valid.Hex(), want: valid},
		{name: "nil id", in: "000000000000000000000000", want: primitive.NilObjectID},
		{name: "empty", in: "", wantErr: true},
		{name: "too short", in: "65f1c0ffee", wantErr: true},
		{name: "too long", in: valid.Hex() + "00", wantErr: true},
		{name: "not hex", in: "zzzzzzzzzzzzzzzzzzzzzzzz", wantErr: true},
		{name: "uuid", in: "01234567-89ab-cdef-0123-456789abcdef", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Errorf("want error %v, got %v", ErrInvalidID, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("want id %v, got id %v", tt.want, got)
			}
		})
	}
}
