package repository

const pgErrUniqueViolationCode = "23505"
