package outbox

const workoutCompletedSchema = `{
  "type": "object",
  "title": "WorkoutCompleted",
  "properties": {
    "completion_id": {"type": "string"},
    "user_id": {"type": "string"},
    "workout_id": {"type": "string"},
    "completed_at": {"type": "string", "format": "date-time"},
    "duration_sec": {"type": "integer"},
    "exercise_count": {"type": "integer"},
    "version": {"type": "string"}
  },
  "required": ["completion_id", "user_id", "completed_at", "duration_sec", "exercise_count", "version"],
  "additionalProperties": false
}`

const achievementUnlockedSchema = `{
  "type": "object",
  "title": "AchievementUnlocked",
  "properties": {
    "user_id": {"type": "string"},
    "achievement_id": {"type": "string"},
    "category": {"type": "string"},
    "points": {"type": "integer"},
    "unlocked_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "achievement_id", "category", "unlocked_at"],
  "additionalProperties": false
}`
