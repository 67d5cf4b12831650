package handlers

// userMessage returns the plain-language text for an error code in the
// given locale. Unknown codes and locales fall back to English.
func userMessage(locale, code string) string {
	if byCode, ok := messages[locale]; ok {
		if msg, ok := byCode[code]; ok {
			return msg
		}
	}
	if msg, ok := messages["en"][code]; ok {
		return msg
	}
	return "Something went wrong. Please try again."
}

var messages = map[string]map[string]string{
	"en": {
		"unauthorized":   "Please sign in to continue.",
		"bad_request":    "The request could not be understood.",
		"not_found":      "We could not find what you were looking for.",
		"duplicate_key":  "A key for this provider is already connected.",
		"transport":      "We could not reach the video service. Nothing was started, please try again.",
		"invalid_state":  "That step is not available right now.",
		"upload_missing": "Your uploaded files are no longer available. Please upload them again.",
		"internal":       "Something went wrong on our side. Please try again.",
	},
	"id": {
		"unauthorized":   "Silakan masuk untuk melanjutkan.",
		"bad_request":    "Permintaan tidak dapat dipahami.",
		"not_found":      "Kami tidak menemukan yang Anda cari.",
		"duplicate_key":  "Kunci untuk penyedia ini sudah terhubung.",
		"transport":      "Kami tidak dapat menghubungi layanan video. Tidak ada yang dimulai, silakan coba lagi.",
		"invalid_state":  "Langkah itu belum tersedia saat ini.",
		"upload_missing": "Berkas yang Anda unggah sudah tidak tersedia. Silakan unggah kembali.",
		"internal":       "Terjadi kesalahan di pihak kami. Silakan coba lagi.",
	},
	"es": {
		"unauthorized":   "Inicia sesión para continuar.",
		"bad_request":    "No se pudo entender la solicitud.",
		"not_found":      "No encontramos lo que buscabas.",
		"duplicate_key":  "Ya hay una clave conectada para este proveedor.",
		"transport":      "No pudimos comunicarnos con el servicio de video. No se inició nada, inténtalo de nuevo.",
		"invalid_state":  "Ese paso no está disponible ahora mismo.",
		"upload_missing": "Tus archivos subidos ya no están disponibles. Súbelos de nuevo.",
		"internal":       "Algo salió mal de nuestro lado. Inténtalo de nuevo.",
	},
}
