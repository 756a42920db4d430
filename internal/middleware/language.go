// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"

	"github.com/olegiv/primer-go/internal/i18n"
	"github.com/olegiv/primer-go/internal/theme"
)

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "primer_lang"

// Language picks the request language and stores it with theme.WithLanguage.
// Priority order:
// 1. Query parameter ?lang=XX (explicit switch, updates the cookie)
// 2. Cookie preference
// 3. Accept-Language header
// 4. The catalog default
func Language(c *i18n.Catalog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""

			if q := strings.ToLower(r.URL.Query().Get("lang")); q != "" && i18n.IsSupported(q) {
				lang = q
				http.SetCookie(w, &http.Cookie{
					Name:     LanguageCookieName,
					Value:    lang,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			if lang == "" {
				if cookie, err := r.Cookie(LanguageCookieName); err == nil && i18n.IsSupported(cookie.Value) {
					lang = cookie.Value
				}
			}
			if lang == "" {
				if accept := r.Header.Get("Accept-Language"); accept != "" {
					lang = c.MatchLanguage(accept)
				}
			}
			if lang == "" {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(theme.WithLanguage(r.Context(), lang)))
		})
	}
}
