package certification

import (
	"context"
	"strings"
)

// Logo status lines shown next to the embed panel.
const (
	LogoStatusNoURL     = "No URL"
	LogoStatusEmbedding = "Embedding..."
	LogoStatusEmbedded  = "Embedded & cached."
	LogoStatusUploaded  = "Embedded from upload."
	LogoStatusBadBase64 = "Invalid base64"
	LogoStatusBase64    = "Base64 embedded."
	LogoStatusReset     = "Reset"
	logoStatusFailed    = "Embed fail: "
)

// EmbedLogoURL fetches and flattens a remote logo. Failures never return an
// error: they land in the logo status and the previous logo stays.
func (s *Service) EmbedLogoURL(ctx context.Context, key, rawURL string) (Snapshot, error) {
	target := strings.TrimSpace(rawURL)

	started := false
	snap, err := s.mutate(ctx, key, "logo_url", func(sess *session) (bool, error) {
		sess.draft.LogoURL = rawURL
		if target == "" {
			sess.logoStatus = LogoStatusNoURL
			return true, nil
		}
		sess.logoStatus = LogoStatusEmbedding
		started = true
		return true, nil
	})
	if err != nil || !started {
		return snap, err
	}

	uri, fetchErr := s.embedder.FromURL(ctx, target)
	s.metrics.RecordLogoEmbed(ctx, "url", fetchErr == nil)

	return s.mutate(ctx, key, "logo_url", func(sess *session) (bool, error) {
		if strings.TrimSpace(sess.draft.LogoURL) != target {
			// A newer URL was typed while this one was in flight.
			return false, nil
		}
		if fetchErr != nil {
			s.logger.Warn("Logo embed from %s failed: %v", target, fetchErr)
			sess.logoStatus = logoStatusFailed + fetchErr.Error()
			s.log(sess, "Logo embed failed: "+fetchErr.Error())
			return false, nil
		}
		sess.draft.Logo = uri
		sess.logoStatus = LogoStatusEmbedded
		s.log(sess, "Logo embedded OK")
		return true, nil
	})
}

// EmbedLogoUpload embeds an uploaded logo file.
func (s *Service) EmbedLogoUpload(ctx context.Context, key string, data []byte, contentType string) (Snapshot, error) {
	if _, err := s.session(ctx, key); err != nil {
		return Snapshot{}, err
	}
	uri := s.embedder.FromUpload(data, contentType)
	s.metrics.RecordLogoEmbed(ctx, "upload", uri != "")

	return s.mutate(ctx, key, "logo_upload", func(sess *session) (bool, error) {
		sess.draft.Logo = uri
		sess.logoStatus = LogoStatusUploaded
		s.log(sess, "Logo uploaded & embedded")
		return true, nil
	})
}

// EmbedLogoBase64 embeds pasted base64 text. Text that is not an image data
// URI leaves the logo untouched.
func (s *Service) EmbedLogoBase64(ctx context.Context, key, text string) (Snapshot, error) {
	if _, err := s.session(ctx, key); err != nil {
		return Snapshot{}, err
	}
	uri, embedErr := s.embedder.FromBase64(text)
	s.metrics.RecordLogoEmbed(ctx, "base64", embedErr == nil)

	return s.mutate(ctx, key, "logo_base64", func(sess *session) (bool, error) {
		sess.draft.LogoBase64 = text
		if embedErr != nil {
			sess.logoStatus = LogoStatusBadBase64
			s.log(sess, "Logo base64 invalid")
			return true, nil
		}
		sess.draft.Logo = uri
		sess.logoStatus = LogoStatusBase64
		s.log(sess, "Logo base64 embedded")
		return true, nil
	})
}

// ResetLogo clears the logo and the inputs that produced it.
func (s *Service) ResetLogo(ctx context.Context, key string) (Snapshot, error) {
	return s.mutate(ctx, key, "logo_reset", func(sess *session) (bool, error) {
		sess.draft.Logo = ""
		sess.draft.LogoURL = ""
		sess.draft.LogoBase64 = ""
		sess.logoStatus = LogoStatusReset
		s.log(sess, "Logo reset")
		return true, nil
	})
}
