package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/krehermann/gostackvm/vm"
)

type Encoder[T any] interface {
	Encode(T) error
}

type Decoder[T any] interface {
	Decode(T) error
}

// BinaryProgramEncoder writes programs in the vm wire format.
type BinaryProgramEncoder struct {
	w io.Writer
}

func NewBinaryProgramEncoder(w io.Writer) *BinaryProgramEncoder {
	return &BinaryProgramEncoder{
		w: w,
	}
}

func (e BinaryProgramEncoder) Encode(p vm.Program) error {
	return p.Encode(e.w)
}

type BinaryProgramDecoder struct {
	r io.Reader
}

func NewBinaryProgramDecoder(r io.Reader) *BinaryProgramDecoder {
	return &BinaryProgramDecoder{
		r: r,
	}
}

func (d BinaryProgramDecoder) Decode(p *vm.Program) error {
	prog, err := vm.ReadProgram(d.r)
	if err != nil {
		return err
	}
	*p = prog
	return nil
}

type JSONResultEncoder struct {
	w io.Writer
}

func NewJSONResultEncoder(w io.Writer) *JSONResultEncoder {
	return &JSONResultEncoder{
		w: w,
	}
}

func (e JSONResultEncoder) Encode(r *Result) error {
	enc := json.NewEncoder(e.w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// canonical mode so equal results encode to equal bytes
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("core: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type CBORResultEncoder struct {
	w io.Writer
}

func NewCBORResultEncoder(w io.Writer) *CBORResultEncoder {
	return &CBORResultEncoder{
		w: w,
	}
}

func (e CBORResultEncoder) Encode(r *Result) error {
	return cborEncMode.NewEncoder(e.w).Encode(r)
}

type CBORResultDecoder struct {
	r io.Reader
}

func NewCBORResultDecoder(r io.Reader) *CBORResultDecoder {
	return &CBORResultDecoder{
		r: r,
	}
}

func (d CBORResultDecoder) Decode(r *Result) error {
	return cbor.NewDecoder(d.r).Decode(r)
}

// MarshalCBOR returns the canonical CBOR form of r.
func MarshalCBOR(r *Result) ([]byte, error) {
	return cborEncMode.Marshal(r)
}
