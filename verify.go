package spvmk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/gogpu/naga/spirv"
)

// SPIRVHeader is the fixed five word header of a SPIR-V module.
type SPIRVHeader struct {
	Version   spirv.Version
	Generator uint32
	Bound     uint32
	Schema    uint32
	// ByteOrder is the byte order the module was written in.
	ByteOrder binary.ByteOrder
}

const spirvHeaderSize = 20

// ReadSPIRVHeader reads the header of a SPIR-V module from r. Both byte orders
// are accepted. It returns an error wrapping [ErrNotSPIRV] if r does not start
// with the SPIR-V magic number.
func ReadSPIRVHeader(r io.Reader) (hdr SPIRVHeader, err error) {
	var buf [spirvHeaderSize]byte
	if _, err = io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return hdr, fmt.Errorf("%w: short header", ErrNotSPIRV)
		}
		return hdr, err
	}
	switch {
	case binary.LittleEndian.Uint32(buf[:]) == spirv.MagicNumber:
		hdr.ByteOrder = binary.LittleEndian
	case binary.BigEndian.Uint32(buf[:]) == spirv.MagicNumber:
		hdr.ByteOrder = binary.BigEndian
	default:
		return hdr, fmt.Errorf("%w: magic %08x", ErrNotSPIRV, binary.LittleEndian.Uint32(buf[:]))
	}
	word := func(i int) uint32 { return hdr.ByteOrder.Uint32(buf[4*i:]) }
	v := word(1)
	hdr.Version = spirv.Version{Major: uint8(v >> 16), Minor: uint8(v >> 8)}
	hdr.Generator = word(2)
	hdr.Bound = word(3)
	hdr.Schema = word(4)
	return hdr, nil
}

// CheckArtifact verifies that the file at path exists and is a SPIR-V module
// that declares no version newer than target. The old output is removed
// before compiling, so a missing file means the compiler did not write it.
func CheckArtifact(path string, target spirv.Version) error {
	r, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", path, ErrStaleArtifact)
	case err != nil:
		return err
	}
	defer r.Close()
	hdr, err := ReadSPIRVHeader(r)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if versionLess(target, hdr.Version) {
		return &SPIRVVersionError{Path: path, Have: hdr.Version, Max: target}
	}
	return nil
}

// ParseSPIRVVersion parses versions like "1.3" or "spirv1.3".
func ParseSPIRVVersion(s string) (v spirv.Version, err error) {
	str := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "spirv")
	major, minor, ok := strings.Cut(str, ".")
	if !ok {
		return v, fmt.Errorf("illegal SPIR-V version '%s'", s)
	}
	mj, err := strconv.ParseUint(major, 10, 8)
	if err != nil || mj != 1 {
		return v, fmt.Errorf("illegal SPIR-V major version in '%s'", s)
	}
	mi, err := strconv.ParseUint(minor, 10, 8)
	if err != nil || mi > 6 {
		return v, fmt.Errorf("illegal SPIR-V minor version in '%s'", s)
	}
	return spirv.Version{Major: uint8(mj), Minor: uint8(mi)}, nil
}

func fmtVersion(v spirv.Version) string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func versionLess(a, b spirv.Version) bool {
	if a.Major != b.Major {
		return a.Major < b.Major
	}
	return a.Minor < b.Minor
}
