package console

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	"github.com/mp3/ccnes/internal/bus"
	"github.com/mp3/ccnes/internal/cartridge"
)

// saveStateMagic and saveStateVersion identify and version the on-disk
// format. A restore refuses any blob whose header doesn't match both.
var saveStateMagic = [4]byte{'C', 'C', 'N', 'S'}

const saveStateVersion uint32 = 2

// mapperStateSaver is implemented by every concrete mapper type; each
// returns its own register-set snapshot as a value rather than through
// a single shared interface method, since the register sets differ
// (see internal/cartridge/mapper.go).
type mapperStateSaver interface {
	SaveState() any
}

func init() {
	// Every concrete mapper save-state type must be registered so gob
	// can round-trip it through the MapperState any field.
	gob.Register(cartridge.Mapper0State{})
	gob.Register(cartridge.Mapper1State{})
	gob.Register(cartridge.Mapper2State{})
	gob.Register(cartridge.Mapper3State{})
	gob.Register(cartridge.Mapper4State{})
	gob.Register(cartridge.Mapper5State{})
	gob.Register(cartridge.Mapper7State{})
	gob.Register(cartridge.Mapper9State{})
	gob.Register(cartridge.Mapper11State{})
	gob.Register(cartridge.Mapper66State{})
}

// payload is everything save-state captures beyond the magic/version
// header: the bus's full component state, the cartridge's mutable RAM,
// and the mapper's register snapshot.
type payload struct {
	Bus         bus.State
	MapperID    uint8
	MapperState any
	PRGRAM      []byte
	CHRRAM      []byte
	Battery     bool
}

// SaveState serializes the console's complete architectural state:
// magic "CCNS", a u32 version, then the gob-encoded payload.
func (c *Console) SaveState() ([]byte, error) {
	if c.cart == nil {
		return nil, &cartridge.LoadError{Kind: cartridge.InternalUnreachable, Msg: "console: save-state requested with no cartridge loaded"}
	}
	saver, ok := c.cart.Mapper().(mapperStateSaver)
	if !ok {
		return nil, &cartridge.LoadError{Kind: cartridge.InternalUnreachable, Msg: fmt.Sprintf("console: mapper %T does not implement save-state capture", c.cart.Mapper())}
	}

	p := payload{
		Bus:         c.bus.SaveState(),
		MapperID:    c.cart.MapperID,
		MapperState: saver.SaveState(),
		PRGRAM:      append([]byte(nil), c.cart.PRGRAM...),
		CHRRAM:      append([]byte(nil), c.cart.CHRRAM...),
		Battery:     c.cart.Battery,
	}

	var buf bytes.Buffer
	buf.Write(saveStateMagic[:])
	if err := binary.Write(&buf, binary.LittleEndian, saveStateVersion); err != nil {
		return nil, &cartridge.LoadError{Kind: cartridge.IoError, Msg: err.Error()}
	}
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		return nil, &cartridge.LoadError{Kind: cartridge.IoError, Msg: "encoding save state: " + err.Error()}
	}
	return buf.Bytes(), nil
}

// LoadState restores a previously captured save state. Decoding is
// fully transactional: the header, payload, and mapper-state type
// assertion are all validated into a temporary value first, and the
// console's live state is only overwritten once every step has
// succeeded, so a rejected load leaves the running console untouched.
func (c *Console) LoadState(data []byte) error {
	if c.cart == nil {
		return &cartridge.LoadError{Kind: cartridge.InternalUnreachable, Msg: "console: load-state requested with no cartridge loaded"}
	}
	if len(data) < 8 {
		return &cartridge.LoadError{Kind: cartridge.IoError, Msg: "save state truncated before header"}
	}
	var magic [4]byte
	copy(magic[:], data[:4])
	if magic != saveStateMagic {
		return &cartridge.LoadError{Kind: cartridge.SaveStateVersion, Msg: "save state magic mismatch"}
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != saveStateVersion {
		return &cartridge.LoadError{Kind: cartridge.SaveStateVersion, Msg: fmt.Sprintf("save state version %d unsupported (want %d)", version, saveStateVersion)}
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(data[8:])).Decode(&p); err != nil {
		return &cartridge.LoadError{Kind: cartridge.IoError, Msg: "decoding save state: " + err.Error()}
	}
	if p.MapperID != c.cart.MapperID {
		return &cartridge.LoadError{Kind: cartridge.SaveStateVersion, Msg: fmt.Sprintf("save state mapper %d does not match loaded cartridge mapper %d", p.MapperID, c.cart.MapperID)}
	}
	restore, err := mapperRestoreFunc(c.cart.Mapper(), p.MapperState)
	if err != nil {
		return err
	}
	if len(p.PRGRAM) != len(c.cart.PRGRAM) || len(p.CHRRAM) != len(c.cart.CHRRAM) {
		return &cartridge.LoadError{Kind: cartridge.SaveStateVersion, Msg: "save state RAM size does not match loaded cartridge"}
	}

	// Every field validated; swap the console's live state in one shot.
	restore()
	c.bus.LoadState(p.Bus)
	copy(c.cart.PRGRAM, p.PRGRAM)
	copy(c.cart.CHRRAM, p.CHRRAM)
	c.cart.Battery = p.Battery
	return nil
}

// mapperRestoreFunc type-asserts state against the concrete type m
// expects and returns a closure that performs the restore, so the
// caller can validate every save-state field before mutating anything
// (the transactional decode-then-swap LoadState requires).
func mapperRestoreFunc(m cartridge.Mapper, state any) (func(), error) {
	switch mm := m.(type) {
	case *cartridge.Mapper0:
		s, ok := state.(cartridge.Mapper0State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper1:
		s, ok := state.(cartridge.Mapper1State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper2:
		s, ok := state.(cartridge.Mapper2State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper3:
		s, ok := state.(cartridge.Mapper3State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper4:
		s, ok := state.(cartridge.Mapper4State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper5:
		s, ok := state.(cartridge.Mapper5State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper7:
		s, ok := state.(cartridge.Mapper7State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper9:
		s, ok := state.(cartridge.Mapper9State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper11:
		s, ok := state.(cartridge.Mapper11State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	case *cartridge.Mapper66:
		s, ok := state.(cartridge.Mapper66State)
		if !ok {
			return nil, mapperStateTypeError(m, state)
		}
		return func() { mm.LoadState(s) }, nil
	default:
		return nil, &cartridge.LoadError{Kind: cartridge.InternalUnreachable, Msg: fmt.Sprintf("console: unrecognized mapper type %T", m)}
	}
}

func mapperStateTypeError(m cartridge.Mapper, state any) error {
	return &cartridge.LoadError{Kind: cartridge.SaveStateVersion, Msg: fmt.Sprintf("console: save state payload type %T does not match mapper %T", state, m)}
}
