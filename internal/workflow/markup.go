package workflow

// Button is a keyboard button. Inline buttons carry Data or URL; reply
// keyboard buttons carry only Text and optionally request the contact.
type Button struct {
	Text           string
	Data           string
	URL            string
	RequestContact bool
}

// Markup describes the keyboard attached to an outgoing message.
type Markup struct {
	Inline      bool
	Rows        [][]Button
	Remove      bool
	OneTime     bool
	Placeholder string
}

func Inline(rows ...[]Button) *Markup {
	return &Markup{Inline: true, Rows: rows}
}

func Reply(rows ...[]Button) *Markup {
	return &Markup{Rows: rows}
}

func RemoveKeyboard() *Markup {
	return &Markup{Remove: true}
}

func Row(buttons ...Button) []Button {
	return buttons
}

func CallbackButton(text, data string) Button {
	return Button{Text: text, Data: data}
}

func URLButton(text, url string) Button {
	return Button{Text: text, URL: url}
}

func LabelButton(text string) Button {
	return Button{Text: text}
}

// chunkLabels lays labels out in rows of size n.
func chunkLabels(labels []string, n int) [][]Button {
	var rows [][]Button
	for i := 0; i < len(labels); i += n {
		end := min(i+n, len(labels))
		row := make([]Button, 0, end-i)
		for _, l := range labels[i:end] {
			row = append(row, LabelButton(l))
		}
		rows = append(rows, row)
	}
	return rows
}
