// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat screen of the parley TUI.

The screen shows the conversation sidebar on the left and the message panel
with the composer on the right. Its state lives in an *app.App; the model
only keeps focus, layout and the count of commands in flight.

# Commands

Everything that touches the network runs in a tea.Cmd:
  - Boot (run by the parent on entry, and on Ctrl+R) reports BootMsg
  - sending a message reports ReplyMsg after the optimistic render
  - opening a sidebar entry reports OpenedMsg

A BootMsg carrying app.ErrLoggedOut, and the logout key, produce a
SessionEndedMsg for the parent model.

# Keys

Enter sends, Alt+Enter inserts a newline, Ctrl+N starts a new chat and Tab
moves focus to the sidebar. On the welcome panel with an empty draft the
number keys place a suggested question in the composer.
*/
package chat
