// Package ui implements the interactive terminal surfaces of the client using
// bubbletea's Elm architecture.
//
// [LoginModel] is a two-field credential form shown by `ilas login` when no
// credential flags are supplied. It implements the standard Init/Update/View
// pattern with tab/enter navigation and esc/ctrl+c to abort.
//
// The package also exposes lipgloss-styled rendering helpers for session and
// identity output ([RenderUser], [RenderSessionStatus]) so the CLI's
// human-readable mode shares one stylesheet.
package ui
