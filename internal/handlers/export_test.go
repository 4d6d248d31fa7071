package handlers

// SetGoogleTokenInfoURL points Google token verification at url and
// returns a func that restores the previous endpoint.
func SetGoogleTokenInfoURL(url string) func() {
	prev := googleTokenInfoURL
	googleTokenInfoURL = url
	return func() { googleTokenInfoURL = prev }
}
