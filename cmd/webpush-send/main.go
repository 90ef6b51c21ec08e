// Command webpush-send signs and sends one Web Push notification from
// the command line. It is a thin collaborator over the webpush package:
// all crypto and wire-format logic lives there, this binary only wires
// config, logging, and a key source together.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"

	"github.com/nullpush/webpush"
	"github.com/nullpush/webpush/keys"
)

var env = envconfig.MustProcess(context.Background(), &struct {
	// KMSKeyName selects a Cloud KMS-backed signer when set; otherwise a
	// PEM or DER private key file is used.
	KMSKeyName string `env:"KMS_KEY_NAME" default:""`
	KeyPath    string `env:"VAPID_KEY_PATH" default:"/tmp/vapid-private.pem"`
	Subject    string `env:"VAPID_SUBJECT" default:"mailto:admin@example.com"`
})

// keyPathList collects repeated -previous-key flags, oldest key first.
type keyPathList []string

func (l *keyPathList) String() string     { return fmt.Sprint([]string(*l)) }
func (l *keyPathList) Set(path string) error { *l = append(*l, path); return nil }

func main() {
	var previousKeyPaths keyPathList
	var (
		endpoint   = flag.String("endpoint", "", "push service subscription endpoint (required)")
		p256dh     = flag.String("p256dh", "", "subscriber's p256dh public key, base64url (required)")
		auth       = flag.String("auth", "", "subscriber's auth secret, base64url (required)")
		payload    = flag.String("payload", "", "plaintext payload to send; omitted means no payload")
		ttl        = flag.Uint("ttl", 0, "TTL in seconds; 0 uses the library default (28 days)")
		urgency    = flag.String("urgency", "", "very-low, low, normal, or high; empty omits the header")
		topic      = flag.String("topic", "", "replacement topic; empty omits the header")
		encoding   = flag.String("encoding", "aes128gcm", "aes128gcm or aesgcm")
		vapidKeyID = flag.String("vapid-key-id", "", "base64url VAPID public key this subscription was created under, if rotating keys; empty uses the current key")
	)
	flag.Var(&previousKeyPaths, "previous-key", "PEM/DER key file for a retired VAPID key, oldest first; repeatable. When given, the current key rotates on top of them so Send can still sign for subscriptions minted under an old key.")
	flag.Parse()

	ctx := context.Background()

	if *endpoint == "" || *p256dh == "" || *auth == "" {
		clog.Fatal("endpoint, p256dh, and auth are all required")
	}

	signer, err := loadSigner(ctx, previousKeyPaths)
	if err != nil {
		clog.Fatalf("loading VAPID signer: %v", err)
	}

	sub := &webpush.Subscription{
		Endpoint: *endpoint,
		Keys: webpush.Keys{
			P256dh: *p256dh,
			Auth:   *auth,
		},
	}

	opts := &webpush.SendOptions{VapidKeyID: *vapidKeyID}
	if *ttl != 0 {
		v := uint32(*ttl)
		opts.TTL = &v
	}
	if *urgency != "" {
		v := webpush.Urgency(*urgency)
		opts.Urgency = &v
	}
	if *topic != "" {
		opts.Topic = topic
	}
	if *payload != "" {
		opts.Payload = []byte(*payload)
		opts.Encoding = webpush.ContentEncoding(*encoding)
	}

	client := webpush.NewClient(signer, env.Subject)
	if err := client.Send(ctx, sub, opts); err != nil {
		printResult(err)
		os.Exit(1)
	}
	clog.Info("push sent")
}

// loadSigner mirrors the teacher's key-source selection: KMS if
// configured, otherwise a key file, generating one on first run. When
// previousKeyPaths is non-empty the current key is wrapped in a
// keys.RotatingSigner rotated forward over each retired key in order, so
// -vapid-key-id can still route a Send to a key that's no longer current.
func loadSigner(ctx context.Context, previousKeyPaths []string) (webpush.Signer, error) {
	current, err := loadCurrentSigner(ctx)
	if err != nil {
		return nil, err
	}
	if len(previousKeyPaths) == 0 {
		return current, nil
	}

	first, err := keys.NewFileSigner(previousKeyPaths[0])
	if err != nil {
		return nil, fmt.Errorf("loading previous key %s: %w", previousKeyPaths[0], err)
	}
	rotating := keys.NewRotatingSigner(first)
	for _, path := range previousKeyPaths[1:] {
		prev, err := keys.NewFileSigner(path)
		if err != nil {
			return nil, fmt.Errorf("loading previous key %s: %w", path, err)
		}
		rotating.Rotate(prev)
	}
	rotating.Rotate(current)
	clog.Infof("tracking %d retired VAPID key(s) alongside the current one", rotating.KeyCount()-1)
	return rotating, nil
}

func loadCurrentSigner(ctx context.Context) (webpush.Signer, error) {
	if env.KMSKeyName != "" {
		clog.Infof("using KMS for VAPID keys: %s", env.KMSKeyName)
		return keys.NewKMSSigner(ctx, env.KMSKeyName)
	}

	if _, err := os.Stat(env.KeyPath); os.IsNotExist(err) {
		clog.Info("generating new VAPID key at", env.KeyPath)
		return keys.GenerateKey(env.KeyPath)
	}

	clog.Info("loading VAPID key from", env.KeyPath)
	return keys.NewFileSigner(env.KeyPath)
}

// printResult reports a *webpush.Error's Kind and any Retry-After the
// push service asked for, falling back to a plain message for anything
// else Send could return.
func printResult(err error) {
	pushErr, ok := err.(*webpush.Error)
	if !ok {
		clog.Errorf("send failed: %v", err)
		return
	}

	fields := map[string]any{"kind": string(pushErr.Kind)}
	if pushErr.RetryAfter != nil {
		fields["retry_after"] = pushErr.RetryAfter.String()
	}
	if pushErr.Info != nil {
		fields["push_service_message"] = pushErr.Info.Message
	}
	b, _ := json.Marshal(fields)
	clog.Errorf("send failed: %s", string(b))

	fmt.Fprintln(os.Stderr, err)
}
