package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key holding a user's active session JTI
func (r *CacheKeyStruct) UserSessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("artbox:session:%s", userID)
}

// ClassWorksChannel returns the Pub/Sub channel for work changes in a class
func (r *CacheKeyStruct) ClassWorksChannel(classID uuid.UUID) string {
	return fmt.Sprintf("artbox:live:works:class:%s", classID)
}

// TaskWorksChannel returns the Pub/Sub channel for work changes on a task
func (r *CacheKeyStruct) TaskWorksChannel(taskID uuid.UUID) string {
	return fmt.Sprintf("artbox:live:works:task:%s", taskID)
}

// StudentWorksChannel returns the Pub/Sub channel for one student's works
func (r *CacheKeyStruct) StudentWorksChannel(studentID uuid.UUID) string {
	return fmt.Sprintf("artbox:live:works:student:%s", studentID)
}

// TeacherTasksChannel returns the Pub/Sub channel for a teacher's tasks
func (r *CacheKeyStruct) TeacherTasksChannel(teacherID uuid.UUID) string {
	return fmt.Sprintf("artbox:live:tasks:teacher:%s", teacherID)
}

// TeacherWorksChannel returns the Pub/Sub channel for works on any task a teacher owns
func (r *CacheKeyStruct) TeacherWorksChannel(teacherID uuid.UUID) string {
	return fmt.Sprintf("artbox:live:works:teacher:%s", teacherID)
}

// ClassRosterChannel returns the Pub/Sub channel for roster changes in a class
func (r *CacheKeyStruct) ClassRosterChannel(classID uuid.UUID) string {
	return fmt.Sprintf("artbox:live:roster:class:%s", classID)
}

// ClassResourcesChannel returns the Pub/Sub channel for shared resources of a class
func (r *CacheKeyStruct) ClassResourcesChannel(classID uuid.UUID) string {
	return fmt.Sprintf("artbox:live:resources:class:%s", classID)
}

var CacheKey = NewCacheKeyStruct()
