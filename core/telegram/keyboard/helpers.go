package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard returns a markup that hides a previously sent reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard from rows of labels.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// OneTimeChoices lays labels out on a single row that Telegram hides after
// the first tap.
func OneTimeChoices(labels ...string) *tele.ReplyMarkup {
	if len(labels) == 0 {
		return nil
	}
	markup := ReplyButtons(labels)
	markup.OneTimeKeyboard = true
	return markup
}
