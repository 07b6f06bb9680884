package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Tedik0/TortygaZP/models"
)

// Callback data prefixes. Identifier-carrying actions use "prefix:id".
const (
	cbOpenCalc      = "open_calc"
	cbAddPoint      = "add_point"
	cbPoint         = "point"
	cbMember        = "member"
	cbWithdraw      = "withdraw"
	cbHistory       = "history"
	cbAskDelete     = "ask_delete"
	cbConfirmDelete = "confirm_delete"
	cbSetBalance    = "set_balance"
)

func pointData(id int64) string    { return fmt.Sprintf("%s:%d", cbPoint, id) }
func memberData(id int64) string   { return fmt.Sprintf("%s:%d", cbMember, id) }
func withdrawData(id int64) string { return fmt.Sprintf("%s:%d", cbWithdraw, id) }
func historyData(id int64) string  { return fmt.Sprintf("%s:%d", cbHistory, id) }

// splitData extracts the id from "prefix:id" callback data
func splitData(data string) (prefix string, id int64, err error) {
	parts := strings.SplitN(data, ":", 2)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("callback data %q has no id", data)
	}
	id, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("callback data %q: bad id: %w", data, err)
	}
	return parts[0], id, nil
}

func mainMenu() Reply {
	return Reply{
		Text: "Главное меню",
		Buttons: [][]Button{
			{{Label: "💰 Калькулятор наличных", Data: cbOpenCalc}},
		},
	}
}

// folderScreen lists the points. In legacy fold mode names differing only
// in case collapse into one entry; the oldest point wins, matching lookup.
func folderScreen(points []*models.Point, fold bool) Reply {
	if fold {
		winners := make(map[string]*models.Point, len(points))
		for _, point := range points {
			key := strings.ToLower(point.Name)
			if prev, ok := winners[key]; ok && prev.ID <= point.ID {
				continue
			}
			winners[key] = point
		}
		deduped := points[:0:0]
		for _, point := range points {
			if winners[strings.ToLower(point.Name)] == point {
				deduped = append(deduped, point)
			}
		}
		points = deduped
	}

	buttons := make([][]Button, 0, len(points)+1)
	for _, point := range points {
		buttons = append(buttons, []Button{{Label: point.Name, Data: pointData(point.ID)}})
	}
	buttons = append(buttons, []Button{{Label: "➕ Добавить точку", Data: cbAddPoint}})

	text := "Ваши точки:"
	if len(points) == 0 {
		text = "Точек пока нет. Добавьте первую."
	}
	return Reply{Text: text, Buttons: buttons}
}

func pointScreen(point *models.Point, members []*models.Member, isAdmin bool) Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Точка «%s»\n\n", point.Name)
	for _, member := range members {
		fmt.Fprintf(&sb, "%s — %s\n", member.Name, formatBalance(member.Balance, member.IsSet))
	}

	buttons := make([][]Button, 0, len(members)+2)
	for _, member := range members {
		buttons = append(buttons, []Button{{Label: member.Name, Data: memberData(member.ID)}})
	}
	if isAdmin {
		buttons = append(buttons, []Button{{Label: "🗑 Удалить точку", Data: fmt.Sprintf("%s:%d", cbAskDelete, point.ID)}})
	}
	buttons = append(buttons, []Button{{Label: "⬅️ К точкам", Data: cbOpenCalc}})

	return Reply{Text: sb.String(), Buttons: buttons}
}

func memberCard(detail *models.MemberDetail) Reply {
	text := fmt.Sprintf("«%s» / %s\nНаличные: %s",
		detail.PointName, detail.Name, formatBalance(detail.Balance, detail.IsSet))

	var buttons [][]Button
	if !detail.IsSet {
		buttons = append(buttons, []Button{{Label: "💵 Указать наличные", Data: fmt.Sprintf("%s:%d", cbSetBalance, detail.ID)}})
	}
	buttons = append(buttons,
		[]Button{{Label: "➖ Снять", Data: withdrawData(detail.ID)}},
		[]Button{{Label: "📜 История", Data: historyData(detail.ID)}},
		[]Button{{Label: "⬅️ К точке", Data: pointData(detail.PointID)}},
	)

	return Reply{Text: text, Buttons: buttons}
}

func historyScreen(detail *models.MemberDetail, txns []*models.Transaction) Reply {
	var sb strings.Builder
	fmt.Fprintf(&sb, "История «%s» / %s\n\n", detail.PointName, detail.Name)

	if len(txns) == 0 {
		sb.WriteString("Операций пока нет.")
	}
	for _, txn := range txns {
		fmt.Fprintf(&sb, "%s  %+d  (%s)\n",
			txn.CreatedAt.Format("02.01.2006 15:04"), txn.Amount, kindLabel(txn.Kind))
	}

	return Reply{
		Text: sb.String(),
		Buttons: [][]Button{
			{{Label: "⬅️ Назад", Data: memberData(detail.ID)}},
		},
	}
}

func confirmDeleteScreen(point *models.Point) Reply {
	return Reply{
		Text: fmt.Sprintf("Удалить точку «%s» со всеми сотрудниками и историей?", point.Name),
		Buttons: [][]Button{
			{{Label: "Да, удалить", Data: fmt.Sprintf("%s:%d", cbConfirmDelete, point.ID)}},
			{{Label: "Отмена", Data: pointData(point.ID)}},
		},
	}
}

func formatBalance(balance int64, isSet bool) string {
	if !isSet {
		return "не указано"
	}
	return fmt.Sprintf("%d ₽", balance)
}

func kindLabel(kind models.TransactionKind) string {
	switch kind {
	case models.TransactionKindInitial:
		return "внесение"
	case models.TransactionKindWithdrawal:
		return "снятие"
	default:
		return string(kind)
	}
}
