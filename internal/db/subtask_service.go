package db

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/balkashynov/tomate/internal/models"
)

// ErrSubTaskNotFound is returned for a position outside the checklist
var ErrSubTaskNotFound = errors.New("sub-task not found")

// AddSubTask appends a sub-task to the end of the task's checklist
func AddSubTask(taskID uint, title string) (*models.SubTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("sub-task title is required")
	}
	if _, err := GetTaskByID(taskID); err != nil {
		return nil, err
	}

	var count int64
	if err := DB.Model(&models.SubTask{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		return nil, err
	}

	st := models.SubTask{TaskID: taskID, Title: title, Position: int(count)}
	if err := DB.Create(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

// ToggleSubTask flips the completed flag of the sub-task at pos
func ToggleSubTask(taskID uint, pos int) (*models.SubTask, error) {
	st, err := getSubTask(DB, taskID, pos)
	if err != nil {
		return nil, err
	}
	st.Completed = !st.Completed
	if err := DB.Model(st).Update("completed", st.Completed).Error; err != nil {
		return nil, err
	}
	return st, nil
}

// RenameSubTask changes the title of the sub-task at pos
func RenameSubTask(taskID uint, pos int, title string) (*models.SubTask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("sub-task title is required")
	}
	st, err := getSubTask(DB, taskID, pos)
	if err != nil {
		return nil, err
	}
	st.Title = title
	if err := DB.Model(st).Update("title", title).Error; err != nil {
		return nil, err
	}
	return st, nil
}

// RemoveSubTask deletes the sub-task at pos and closes the gap
func RemoveSubTask(taskID uint, pos int) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		st, err := getSubTask(tx, taskID, pos)
		if err != nil {
			return err
		}
		if err := tx.Delete(st).Error; err != nil {
			return err
		}
		return tx.Model(&models.SubTask{}).
			Where("task_id = ? AND position > ?", taskID, pos).
			Update("position", gorm.Expr("position - 1")).Error
	})
}

// MoveSubTask moves the sub-task at from to position to, shifting the
// ones in between
func MoveSubTask(taskID uint, from, to int) error {
	return DB.Transaction(func(tx *gorm.DB) error {
		var items []models.SubTask
		if err := tx.Where("task_id = ?", taskID).Order("position ASC").Find(&items).Error; err != nil {
			return err
		}
		if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
			return fmt.Errorf("move %d -> %d on task #%d: %w", from, to, taskID, ErrSubTaskNotFound)
		}
		if from == to {
			return nil
		}

		moved := items[from]
		items = append(items[:from], items[from+1:]...)
		items = append(items[:to], append([]models.SubTask{moved}, items[to:]...)...)

		for i := range items {
			if items[i].Position == i {
				continue
			}
			if err := tx.Model(&items[i]).Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func getSubTask(tx *gorm.DB, taskID uint, pos int) (*models.SubTask, error) {
	var st models.SubTask
	err := tx.Where("task_id = ? AND position = ?", taskID, pos).First(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task #%d position %d: %w", taskID, pos, ErrSubTaskNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// renumber keeps positions dense in slice order
func renumber(items []models.SubTask) {
	for i := range items {
		items[i].Position = i
	}
}
