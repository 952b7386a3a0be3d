package directory

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// KeyTypeEd25519 is the only key type liteservers publish.
const KeyTypeEd25519 = "pub.ed25519"

var (
	// ErrInvalidDirectory indicates the global config could not be parsed.
	ErrInvalidDirectory = errors.New("invalid liteserver directory")

	// ErrEmptyDirectory indicates a directory without any liteserver.
	ErrEmptyDirectory = errors.New("liteserver directory is empty")
)

// ParseError describes which descriptor and field of the document was
// rejected. Index is -1 for document-level failures.
type ParseError struct {
	Index int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s: %v", ErrInvalidDirectory, e.Field, e.Err)
	}
	return fmt.Sprintf("%v: liteservers[%d].%s: %v", ErrInvalidDirectory, e.Index, e.Field, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidDirectory, e.Err}
}

// ServerDescriptor identifies one liteserver. It is immutable once parsed.
type ServerDescriptor struct {
	Address   uint32
	Port      uint16
	PublicKey ed25519.PublicKey
	KeyType   string
}

// Host returns the dotted-quad address.
func (s ServerDescriptor) Host() string {
	return IPv4String(s.Address)
}

// Addr returns the host:port dial target.
func (s ServerDescriptor) Addr() string {
	return hostPort(s.Address, s.Port)
}

// String returns the dial target and a short key preview.
func (s ServerDescriptor) String() string {
	if len(s.PublicKey) >= 4 {
		return fmt.Sprintf("%s (%x...)", s.Addr(), []byte(s.PublicKey[:4]))
	}
	return s.Addr()
}

func (s ServerDescriptor) clone() ServerDescriptor {
	if s.PublicKey != nil {
		s.PublicKey = append(ed25519.PublicKey(nil), s.PublicKey...)
	}
	return s
}

// Directory is an ordered, immutable list of liteservers.
type Directory struct {
	servers []ServerDescriptor
}

// New builds a directory from already validated descriptors.
func New(servers ...ServerDescriptor) *Directory {
	d := &Directory{servers: make([]ServerDescriptor, len(servers))}
	for i, s := range servers {
		d.servers[i] = s.clone()
	}
	return d
}

// Len returns the number of liteservers.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.servers)
}

// At returns a copy of the i-th liteserver.
func (d *Directory) At(i int) ServerDescriptor {
	return d.servers[i].clone()
}

// Servers returns a copy of the liteserver list.
func (d *Directory) Servers() []ServerDescriptor {
	out := make([]ServerDescriptor, d.Len())
	for i := range out {
		out[i] = d.servers[i].clone()
	}
	return out
}

type globalConfig struct {
	Liteservers *[]liteServer `json:"liteservers"`
}

type liteServer struct {
	IP   *int64        `json:"ip"`
	Port *int64        `json:"port"`
	ID   *liteServerID `json:"id"`
}

type liteServerID struct {
	Type *string `json:"@type"`
	Key  *string `json:"key"`
}

// Load parses a global config document. Fields other than liteservers are
// ignored.
func Load(raw []byte) (*Directory, error) {
	var cfg globalConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &ParseError{Index: -1, Field: "document", Err: err}
	}
	if cfg.Liteservers == nil {
		return nil, &ParseError{Index: -1, Field: "liteservers", Err: errors.New("missing field")}
	}

	servers := make([]ServerDescriptor, 0, len(*cfg.Liteservers))
	for i, ls := range *cfg.Liteservers {
		desc, err := parseLiteServer(i, ls)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Load",
				"index":    i,
				"error":    err.Error(),
			}).Error("Liteserver descriptor rejected")
			return nil, err
		}
		servers = append(servers, desc)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "Load",
		"total_nodes": len(servers),
	}).Info("Liteserver directory loaded")

	return &Directory{servers: servers}, nil
}

func parseLiteServer(i int, ls liteServer) (ServerDescriptor, error) {
	missing := errors.New("missing field")

	if ls.IP == nil {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "ip", Err: missing}
	}
	// Accept both the signed encoding and its unsigned equivalent.
	if *ls.IP < math.MinInt32 || *ls.IP > math.MaxUint32 {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "ip", Err: fmt.Errorf("%d out of 32-bit range", *ls.IP)}
	}
	if ls.Port == nil {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "port", Err: missing}
	}
	if *ls.Port < 1 || *ls.Port > math.MaxUint16 {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "port", Err: fmt.Errorf("%d out of range", *ls.Port)}
	}
	if ls.ID == nil {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "id", Err: missing}
	}
	if ls.ID.Type == nil {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "id.@type", Err: missing}
	}
	if *ls.ID.Type != KeyTypeEd25519 {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "id.@type", Err: fmt.Errorf("unsupported key type %q", *ls.ID.Type)}
	}
	if ls.ID.Key == nil {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "id.key", Err: missing}
	}

	key, err := base64.StdEncoding.DecodeString(*ls.ID.Key)
	if err != nil {
		return ServerDescriptor{}, &ParseError{Index: i, Field: "id.key", Err: err}
	}
	if len(key) != ed25519.PublicKeySize {
		return ServerDescriptor{}, &ParseError{
			Index: i,
			Field: "id.key",
			Err:   fmt.Errorf("decoded key is %d bytes, want %d", len(key), ed25519.PublicKeySize),
		}
	}

	addr := uint32(*ls.IP)
	if *ls.IP < 0 {
		addr = FromSigned(int32(*ls.IP))
	}

	return ServerDescriptor{
		Address:   addr,
		Port:      uint16(*ls.Port),
		PublicKey: ed25519.PublicKey(key),
		KeyType:   *ls.ID.Type,
	}, nil
}
