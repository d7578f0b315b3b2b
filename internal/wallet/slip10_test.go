package wallet

import (
	"encoding/hex"
	"errors"
	"testing"
)

// SLIP-0010 test vector 1 for ed25519.
func TestEdKey_SLIP10Vector1(t *testing.T) {
	seed, _ := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	master := edNode(ed25519Curve, seed, 0)
	child, err := master.DeriveChild(HardenedOffset + 0)
	if err != nil {
		t.Fatalf("DeriveChild(0') error: %v", err)
	}

	tests := []struct {
		name      string
		key       *EdKey
		chainCode string
		priv      string
	}{
		{
			name:      "m",
			key:       master,
			chainCode: "90046a93de5380a72b5e45010748567d5ea02bbf6522f979e05c0d8d8ca9fffc",
			priv:      "2b4be7f19ee27bbf30c667b642d5f4aa69fd169872f8fc3059c08ebae2eb19e7",
		},
		{
			name:      "m/0'",
			key:       child,
			chainCode: "8b59aa11380b624e81507a27fedda59fea6d0b779a778918a2fd3590e16e9c69",
			priv:      "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hex.EncodeToString(tt.key.ChainCode()); got != tt.chainCode {
				t.Errorf("chain code = %s, want %s", got, tt.chainCode)
			}
			if got := hex.EncodeToString(tt.key.Key()); got != tt.priv {
				t.Errorf("private key = %s, want %s", got, tt.priv)
			}
		})
	}

	if child.Depth() != 1 {
		t.Errorf("child depth = %d, want 1", child.Depth())
	}
}

func TestEdKey_RejectsNonHardened(t *testing.T) {
	master, err := NewEdMasterKey(seedBytes(t, testSeed(t)))
	if err != nil {
		t.Fatalf("NewEdMasterKey() error: %v", err)
	}
	_, err = master.DeriveChild(0)
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("error = %v, want ErrInvalidIndex", err)
	}
}

func TestEdKey_InvalidSeed(t *testing.T) {
	_, err := NewEdMasterKey(make([]byte, 16))
	if !errors.Is(err, ErrInvalidSeed) {
		t.Errorf("error = %v, want ErrInvalidSeed", err)
	}
}

func TestEdKey_DeriveSolanaDepth(t *testing.T) {
	master, err := NewEdMasterKey(seedBytes(t, testSeed(t)))
	if err != nil {
		t.Fatalf("NewEdMasterKey() error: %v", err)
	}
	node, err := master.DeriveSolana(3)
	if err != nil {
		t.Fatalf("DeriveSolana() error: %v", err)
	}
	if node.Depth() != 4 {
		t.Errorf("depth = %d, want 4", node.Depth())
	}
}
